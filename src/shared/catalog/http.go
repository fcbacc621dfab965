package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/stake-plus/gemtracker/src/shared/tracking"
	"github.com/stake-plus/gemtracker/src/webclient"
)

// DefaultURL is the public leaderboard the catalog is scraped from.
const DefaultURL = "https://hiddengems.gymnasiumsteglitz.de/scrims"

// HTTPSource scrapes the catalog from the leaderboard page on every call.
type HTTPSource struct {
	url          string
	client       *http.Client
	breaker      *gobreaker.CircuitBreaker
	attempts     int
	initialDelay time.Duration
}

// HTTPOption customises an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithRetry sets the attempt count and first backoff delay.
func WithRetry(attempts int, initialDelay time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.attempts = attempts
		s.initialDelay = initialDelay
	}
}

// NewHTTPSource creates a scraper for url. An empty url means DefaultURL.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	s := &HTTPSource{
		url:          url,
		client:       webclient.NewDefault(10 * time.Second),
		attempts:     3,
		initialDelay: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("catalog: circuit %s changed %s -> %s", name, from, to)
		},
	})
	return s
}

// FetchCatalog downloads and parses the leaderboard.
func (s *HTTPSource) FetchCatalog(ctx context.Context) ([]tracking.CatalogEntry, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		status, body, err := webclient.DoWithRetry(ctx, s.attempts, s.initialDelay, func() (int, []byte, error) {
			return webclient.Get(ctx, s.client, s.url)
		})
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", status)
		}
		return ParseLeaderboard(bytes.NewReader(body))
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %s: %w", s.url, err)
	}
	return res.([]tracking.CatalogEntry), nil
}
