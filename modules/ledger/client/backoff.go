package client

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy retries an operation whose failure the classifier marks
// as transient. The delay before retry n is BaseDelay << n, plus up to
// Jitter of random slack. Errors the classifier rejects surface
// immediately.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     time.Duration
	Retryable  func(error) bool
}

// DefaultRetryPolicy matches the ledger provider's throttle window:
// three retries at 1s, 2s, 4s, applied to rate-limit errors only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Retryable:  IsRateLimited,
	}
}

// Delay returns the backoff before retry number attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return d
}

// Retry runs fn under the policy. The last error is returned unwrapped
// so callers can map it after exhaustion.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn()
		if err == nil {
			return val, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if attempt >= p.MaxRetries {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}
}
