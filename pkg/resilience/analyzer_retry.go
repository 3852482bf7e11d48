// Package resilience provides fault tolerance patterns for external service calls.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrRetriesExhausted is returned when every attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig holds configuration for a bounded retry loop.
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first one (default: 5)
	BaseDelay   time.Duration // Backoff base, doubled per attempt (0 disables waiting)
	MaxDelay    time.Duration // Upper bound for a single wait (default: 30s)
	MaxJitter   time.Duration // Random extra wait added to each backoff
}

// DefaultRetryConfig returns the defaults used for oracle calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

// permanentError stops the retry loop.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff returns the wait before the given retry (1-based): base * 2^(retry-1) + jitter.
func (c RetryConfig) Backoff(retry int) time.Duration {
	if c.BaseDelay <= 0 {
		return 0
	}
	d := c.BaseDelay << uint(retry-1)
	maxDelay := c.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	if d <= 0 || d > maxDelay {
		d = maxDelay
	}
	if c.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(c.MaxJitter)))
	}
	return d
}

// Retry runs fn until it succeeds, returns a Permanent error, the attempts run out or ctx ends.
// fn receives the 1-based attempt number. On exhaustion the returned error wraps both
// ErrRetriesExhausted and the last failure.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) error) error {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetryConfig().MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w: %v", err, lastErr)
			}
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt == attempts {
			break
		}

		if wait := cfg.Backoff(attempt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %v", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}
