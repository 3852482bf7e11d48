package resilience

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds configuration for a circuit breaker around an external API.
type BreakerConfig struct {
	Name                string
	MaxHalfOpenRequests uint32        // Requests allowed through while half-open (default: 3)
	Interval            time.Duration // Closed-state counter reset interval (default: 60s)
	Timeout             time.Duration // Open-state duration before half-open (default: 30s)
	ConsecutiveFailures uint32        // Trip after this many consecutive failures (default: 5)
}

// DefaultBreakerConfig returns defaults tuned for rate-limited REST APIs.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:                name,
		MaxHalfOpenRequests: 3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// NewBreaker builds a gobreaker circuit breaker that trips on consecutive failures
// or on a 60% failure ratio over at least 10 requests.
func NewBreaker(cfg BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker {
	consecutive := cfg.ConsecutiveFailures
	if consecutive == 0 {
		consecutive = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= consecutive ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			var nt *nonTripping
			return err == nil || errors.As(err, &nt)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// nonTripping marks an error the breaker records as a success, such as a 4xx response.
type nonTripping struct {
	err error
}

func (e *nonTripping) Error() string { return e.err.Error() }
func (e *nonTripping) Unwrap() error { return e.err }

// NonTripping wraps err so a breaker built by NewBreaker does not count it as a failure.
// The error is still returned to the caller.
func NonTripping(err error) error {
	if err == nil {
		return nil
	}
	return &nonTripping{err: err}
}
