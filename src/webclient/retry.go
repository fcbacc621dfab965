package webclient

import (
	"context"
	"net/http"
	"time"
)

const maxRetryDelay = 30 * time.Second

type AttemptFunc func() (status int, body []byte, err error)

// Retryable reports whether a response status is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry retries fn on transport errors and retryable statuses, doubling the delay
// between attempts. The last attempt's result is returned as is.
func DoWithRetry(ctx context.Context, attempts int, initialDelay time.Duration, fn AttemptFunc) (int, []byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}

	delay := initialDelay
	for i := 0; ; i++ {
		status, body, err := fn()
		if err == nil && !Retryable(status) {
			return status, body, nil
		}
		if i == attempts-1 {
			return status, body, err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return status, body, ctx.Err()
		case <-t.C:
		}
		if delay < maxRetryDelay {
			delay = min(delay*2, maxRetryDelay)
		}
	}
}
