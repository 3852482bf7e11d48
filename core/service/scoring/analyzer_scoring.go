// Package scoring turns a cleaned ticket thread into a structured quality score
// through an external oracle.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/core/port/out"
	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/metrics"
	"ticket_analyzer/pkg/resilience"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// MaxAttempts bounds oracle calls per thread.
const MaxAttempts = 5

// ErrExhausted is wrapped by Score when every attempt failed.
var ErrExhausted = resilience.ErrRetriesExhausted

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")

// Adapter packages threads for the oracle and parses its answers.
type Adapter struct {
	oracle  out.ScoringOracle
	rubric  string
	retry   resilience.RetryConfig
	latency *metrics.LatencyTracker
	log     zerolog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRubric replaces the default rubric.
func WithRubric(rubric string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(rubric) != "" {
			a.rubric = rubric
		}
	}
}

// WithRetry overrides the retry policy. MaxAttempts is capped at 5.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(a *Adapter) {
		if cfg.MaxAttempts <= 0 || cfg.MaxAttempts > MaxAttempts {
			cfg.MaxAttempts = MaxAttempts
		}
		a.retry = cfg
	}
}

// WithLatencyTracker records the duration of each oracle call.
func WithLatencyTracker(lt *metrics.LatencyTracker) Option {
	return func(a *Adapter) { a.latency = lt }
}

// NewAdapter creates a scoring adapter.
func NewAdapter(oracle out.ScoringOracle, log zerolog.Logger, opts ...Option) *Adapter {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = MaxAttempts

	a := &Adapter{
		oracle: oracle,
		rubric: DefaultRubric,
		retry:  retry,
		log:    log.With().Str("component", "scoring").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Score returns the oracle's assessment of thread. An empty thread yields (nil, nil)
// without calling the oracle. When every attempt fails the error wraps ErrExhausted.
func (a *Adapter) Score(ctx context.Context, thread []domain.Message) (*domain.Score, error) {
	if len(thread) == 0 {
		return nil, nil
	}

	var score *domain.Score
	err := resilience.Retry(ctx, a.retry, func(ctx context.Context, attempt int) error {
		start := time.Now()
		raw, err := a.oracle.Invoke(ctx, a.rubric, thread)
		if a.latency != nil {
			a.latency.Record(time.Since(start))
		}
		if err != nil {
			a.log.Warn().Err(err).Int("attempt", attempt).Msg("oracle request failed")
			return err
		}

		parsed, err := ParseResponse(raw)
		if err != nil {
			a.log.Warn().Err(err).Int("attempt", attempt).Msg("oracle response rejected")
			return err
		}
		score = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("score thread: %w", err)
	}
	return score, nil
}

// ParseResponse extracts the JSON object embedded in an oracle answer, optionally fenced,
// and decodes it.
func ParseResponse(raw string) (*domain.Score, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, apperr.ParseError("oracle response", errors.New("no JSON object found"))
	}

	var score domain.Score
	if err := json.Unmarshal([]byte(body), &score); err != nil {
		return nil, apperr.ParseError("oracle response", err)
	}
	if err := score.Validate(); err != nil {
		return nil, apperr.ParseError("oracle response", err)
	}
	return &score, nil
}

func extractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
