package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_FetchCatalog(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(leaderboardPage))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetry(2, time.Millisecond))
	entries, err := src.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPSource_NotFoundIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetry(1, time.Millisecond))
	_, err := src.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestHTTPSource_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetry(1, time.Millisecond))
	for i := 0; i < 5; i++ {
		_, err := src.FetchCatalog(context.Background())
		require.Error(t, err)
	}

	_, err := src.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(5), hits.Load())
}
