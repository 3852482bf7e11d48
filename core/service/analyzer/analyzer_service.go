// Package analyzer orchestrates ticket enrichment, directory resolution, optional scoring and sink output.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/core/port/out"
	"ticket_analyzer/core/service/report"
	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// Service
// =============================================================================

// Scorer rates a normalized thread. A nil score with a nil error means there was nothing to rate.
type Scorer interface {
	Score(ctx context.Context, thread []domain.Message) (*domain.Score, error)
}

// Config controls batch execution.
type Config struct {
	Workers      int
	BatchTimeout time.Duration
	SheetTitle   string
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Workers:      8,
		BatchTimeout: 5 * time.Minute,
		SheetTitle:   "Ticket analysis",
	}
}

// Service runs analysis batches.
type Service struct {
	tickets   out.TicketSource
	messages  out.MessageSource
	directory out.DirectorySource
	scorer    Scorer
	sinks     out.SinkOpener

	cfg     Config
	metrics *metrics.Registry
	log     zerolog.Logger
}

// Deps groups the collaborators of Service. Scorer and Sinks are optional.
type Deps struct {
	Tickets   out.TicketSource
	Messages  out.MessageSource
	Directory out.DirectorySource
	Scorer    Scorer
	Sinks     out.SinkOpener
	Metrics   *metrics.Registry
}

// NewService creates a batch orchestrator.
func NewService(deps Deps, cfg Config, log zerolog.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.SheetTitle == "" {
		cfg.SheetTitle = DefaultConfig().SheetTitle
	}
	reg := deps.Metrics
	if reg == nil {
		reg = metrics.NewRegistry(1000)
	}
	return &Service{
		tickets:   deps.Tickets,
		messages:  deps.Messages,
		directory: deps.Directory,
		scorer:    deps.Scorer,
		sinks:     deps.Sinks,
		cfg:       cfg,
		metrics:   reg,
		log:       log.With().Str("component", "analyzer").Logger(),
	}
}

// Stats returns latency and batch counters.
func (s *Service) Stats() map[string]any {
	return s.metrics.Snapshot()
}

// =============================================================================
// Batch
// =============================================================================

// Analyze fetches tickets, enriches them, resolves directory names, optionally scores the
// threads and writes the succeeded tickets to a sink. Ticket fetch, directory fetch and sink
// failures abort the run; per-ticket failures are reported in the result.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.BatchResult, error) {
	if req.Filter.Limit <= 0 {
		return nil, apperr.InvalidInput("limit", "must be positive")
	}
	if req.UseAI && s.scorer == nil {
		return nil, apperr.BadRequest("scoring is not configured")
	}

	result := &domain.BatchResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	log := s.log.With().Str("run_id", result.RunID).Logger()
	log.Info().Int("limit", req.Filter.Limit).Str("status", req.Filter.Status).Bool("use_ai", req.UseAI).Msg("analysis started")

	tickets, err := s.tickets.FetchTickets(ctx, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}
	result.Total = len(tickets)

	workCtx, cancel := s.batchContext(ctx)
	defer cancel()

	enriched, failures := s.Enrich(workCtx, tickets)
	result.Tickets = enriched
	result.Failures = failures

	// Directory lookups use the caller context so finished work is not lost to the batch deadline.
	if err := s.ResolveDirectories(ctx, tickets); err != nil {
		return nil, err
	}

	if req.UseAI {
		result.ScoreFailures = s.ScoreAll(workCtx, enriched)
	}

	result.Succeeded = len(enriched)
	result.Failed = len(failures)
	for _, t := range enriched {
		if t.Score != nil {
			result.Scored++
		}
	}

	if !req.SkipSink && s.sinks != nil {
		title := req.Title
		if title == "" {
			title = s.cfg.SheetTitle
		}
		url, err := s.writeSink(ctx, title, enriched, req.UseAI)
		if err != nil {
			return nil, err
		}
		result.SheetURL = url
	}

	result.Duration = time.Since(result.StartedAt)
	s.metrics.RecordBatch(result.Succeeded, result.Failed, len(result.ScoreFailures))
	log.Info().
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("scored", result.Scored).
		Dur("duration", result.Duration).
		Msg("analysis finished")
	return result, nil
}

func (s *Service) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.BatchTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.BatchTimeout)
	}
	return context.WithCancel(ctx)
}

// ResolveDirectories fetches the staff and group directories once and sets Assignee and Group
// on every ticket. Unknown or missing identifiers resolve to placeholders.
func (s *Service) ResolveDirectories(ctx context.Context, tickets []*domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	staff, err := s.directory.StaffDirectory(ctx)
	if err != nil {
		return fmt.Errorf("fetch staff directory: %w", err)
	}
	groups, err := s.directory.GroupDirectory(ctx)
	if err != nil {
		return fmt.Errorf("fetch group directory: %w", err)
	}
	for _, t := range tickets {
		t.Assignee = lookup(staff, t.StaffID, domain.UnassignedPlaceholder)
		t.Group = lookup(groups, t.GroupID, domain.UngroupedPlaceholder)
	}
	return nil
}

func lookup(dir map[int64]string, id int64, placeholder string) string {
	if name, ok := dir[id]; ok && name != "" {
		return name
	}
	return placeholder
}

// ScoreAll rates every ticket thread. Failures leave Score nil and are returned; they never
// affect the enrichment result.
func (s *Service) ScoreAll(ctx context.Context, tickets []*domain.Ticket) []domain.TicketFailure {
	errs := make([]error, len(tickets))
	tracker := s.metrics.Tracker("score")

	err := s.fanOut(ctx, len(tickets), func(ctx context.Context, i int) {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			return
		}
		start := time.Now()
		score, err := s.scorer.Score(ctx, tickets[i].Messages)
		tracker.Record(time.Since(start))
		if err != nil {
			errs[i] = err
			return
		}
		tickets[i].Score = score
	})
	if err != nil {
		s.log.Error().Err(err).Msg("scoring pool failed")
	}

	var failures []domain.TicketFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		stage := domain.StageScoring
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			stage = domain.StageCanceled
		}
		s.log.Warn().Err(err).Int64("case_id", tickets[i].CaseID).Msg("ticket scoring failed")
		failures = append(failures, domain.TicketFailure{CaseID: tickets[i].CaseID, Stage: stage, Error: err.Error()})
	}
	return failures
}

func (s *Service) writeSink(ctx context.Context, title string, tickets []*domain.Ticket, withScores bool) (string, error) {
	sink, err := s.sinks.Open(ctx, title)
	if err != nil {
		return "", fmt.Errorf("open sink: %w", err)
	}
	if err := sink.WriteTicketRows(ctx, report.TicketTable(tickets)); err != nil {
		return "", fmt.Errorf("write ticket rows: %w", err)
	}
	if withScores {
		if err := sink.WriteScoreRows(ctx, report.ScoreTable(tickets)); err != nil {
			return "", fmt.Errorf("write score rows: %w", err)
		}
	}
	s.log.Info().Str("url", sink.URL()).Int("rows", len(tickets)).Msg("results written")
	return sink.URL(), nil
}
