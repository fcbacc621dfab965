package logging

import (
	"context"
	"errors"
	"net"
	"strings"
)

// IsRateLimit reports whether err looks like an upstream rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429")
}

// IsTransient reports whether err is the kind of failure that is expected to clear up on
// its own (timeouts, dropped connections, rate limits, 5xx).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || IsRateLimit(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection reset", "connection refused", "eof", "502", "503", "504", "circuit breaker is open"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Describe labels err for log lines.
func Describe(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsRateLimit(err):
		return "rate limited"
	case IsTransient(err):
		return "transient"
	default:
		return "error"
	}
}
