package api

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/alarino/dictweb/internal/observability"
)

// Retry defaults.
const (
	DefaultRetryInitialBackoff = 100 * time.Millisecond
	DefaultRetryMaxBackoff     = 2 * time.Second
	DefaultRetryJitterFactor   = 0.25
)

// RetryConfig controls retries of idempotent calls. A zero MaxRetries
// disables retrying.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFactor   float64
}

// WithRetry retries GET calls that fail in transport or with a gateway
// status.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) {
		if cfg.InitialBackoff <= 0 {
			cfg.InitialBackoff = DefaultRetryInitialBackoff
		}
		if cfg.MaxBackoff <= 0 {
			cfg.MaxBackoff = DefaultRetryMaxBackoff
		}
		if cfg.JitterFactor < 0 {
			cfg.JitterFactor = 0
		}
		if cfg.JitterFactor > 1 {
			cfg.JitterFactor = 1
		}
		c.retry = cfg
	}
}

// retryable reports whether a failed GET may be attempted again.
func retryable(err *APIError) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err.Cause, ErrCircuitOpen),
		errors.Is(err.Cause, ErrUnexpectedContentType),
		errors.Is(err.Cause, context.Canceled),
		errors.Is(err.Cause, context.DeadlineExceeded):
		return false
	case err.IsTransport():
		return true
	}
	switch err.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff returns the delay before retry number attempt, counting from zero.
func (cfg RetryConfig) backoff(attempt int) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	//nolint:gosec // G404: jitter for retry timing is not security-sensitive
	d += d * cfg.JitterFactor * rand.Float64()
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	return time.Duration(d)
}

// withRetry runs fn until it succeeds, fails permanently or the retry
// budget is spent.
func (c *Client) withRetry(ctx context.Context, method, path string, fn func() *APIError) *APIError {
	maxRetries := 0
	if method == http.MethodGet {
		maxRetries = c.retry.MaxRetries
	}

	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) || attempt == maxRetries {
			return lastErr
		}

		wait := c.retry.backoff(attempt)
		c.logger.Debug("retrying api call",
			observability.String("method", method),
			observability.String("path", path),
			observability.Int("attempt", attempt+1),
			observability.Duration("backoff", wait),
			observability.Error(lastErr),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return newTransportError(ctx.Err().Error(), ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}
