package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/core/service/classify"
	"ticket_analyzer/core/service/normalize"
	"ticket_analyzer/core/service/timing"

	"github.com/go-pkgz/pool"
)

// stageError tags a per-ticket failure with the stage that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// slot is the independent output cell of one ticket in a fan-out pass.
type slot struct {
	done bool
	err  *stageError
}

// indexWorker adapts a per-index function to pool.Worker.
type indexWorker struct {
	fn func(ctx context.Context, i int)
}

func (w *indexWorker) Do(ctx context.Context, i int) error {
	w.fn(ctx, i)
	return nil
}

// fanOut runs fn for every index in [0, n) on a bounded pool and waits for all of them.
// The pool's own lifetime is detached from ctx so submissions never block on a
// canceled batch; fn is expected to observe ctx itself.
func (s *Service) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if n == 0 {
		return nil
	}
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	poolCtx := context.WithoutCancel(ctx)
	p := pool.New[int](workers, &indexWorker{fn: func(_ context.Context, i int) { fn(ctx, i) }}).
		WithContinueOnError()
	if err := p.Go(poolCtx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}
	for i := 0; i < n; i++ {
		p.Submit(i)
	}
	if err := p.Close(poolCtx); err != nil {
		return fmt.Errorf("close worker pool: %w", err)
	}
	return nil
}

// Enrich normalizes, classifies and times every ticket's thread. Tickets are processed
// concurrently but results keep input order. A failing ticket keeps Metrics == nil and is
// reported in failures; it never aborts the batch. When ctx expires, tickets that have not
// finished are reported as failures and finished ones are still returned.
func (s *Service) Enrich(ctx context.Context, tickets []*domain.Ticket) ([]*domain.Ticket, []domain.TicketFailure) {
	slots := make([]slot, len(tickets))
	tracker := s.metrics.Tracker("enrich")

	err := s.fanOut(ctx, len(tickets), func(ctx context.Context, i int) {
		if ctx.Err() != nil {
			slots[i].err = &stageError{stage: domain.StageCanceled, err: ctx.Err()}
			return
		}
		start := time.Now()
		slots[i].err = s.enrichOne(ctx, tickets[i])
		slots[i].done = slots[i].err == nil
		tracker.Record(time.Since(start))
	})
	if err != nil {
		s.log.Error().Err(err).Msg("enrichment pool failed")
	}

	enriched := make([]*domain.Ticket, 0, len(tickets))
	var failures []domain.TicketFailure
	for i, t := range tickets {
		sl := slots[i]
		if sl.done {
			enriched = append(enriched, t)
			continue
		}
		f := domain.TicketFailure{CaseID: t.CaseID, Stage: domain.StageCanceled, Error: "not processed"}
		if sl.err != nil {
			f.Stage, f.Error = sl.err.stage, sl.err.err.Error()
		}
		s.log.Warn().Int64("case_id", t.CaseID).Str("stage", f.Stage).Str("error", f.Error).Msg("ticket enrichment failed")
		failures = append(failures, f)
	}
	return enriched, failures
}

// enrichOne fills Messages and Metrics for t. Fields are assigned only after every stage succeeded.
func (s *Service) enrichOne(ctx context.Context, t *domain.Ticket) (serr *stageError) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Int64("case_id", t.CaseID).Str("stack", string(debug.Stack())).Msgf("panic during enrichment: %v", r)
			serr = &stageError{stage: domain.StageNormalize, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	raw, err := s.messages.FetchMessages(ctx, t.CaseID)
	if err != nil {
		if ctx.Err() != nil {
			return &stageError{stage: domain.StageCanceled, err: err}
		}
		return &stageError{stage: domain.StageFetchMessages, err: err}
	}

	messages, err := BuildThread(raw)
	if err != nil {
		return &stageError{stage: domain.StageNormalize, err: err}
	}

	counts := classify.Count(messages)
	earliest, _ := timing.EarliestAgentReply(messages)
	minutes, known := timing.MinutesBetweenKnown(t.CreatedAt, earliest)

	t.Messages = messages
	t.Metrics = &domain.Metrics{
		StaffCount:         counts.Agent,
		UserCount:          counts.Customer,
		SystemCount:        counts.System,
		EarliestMessage:    earliest,
		FirstResponseScore: minutes,
		FirstResponseKnown: known,
	}
	return nil
}

// BuildThread converts raw helpdesk messages into a normalized thread. Messages without
// usable content are kept with a nil Content so ordering and counts match the source.
func BuildThread(raw []domain.RawMessage) ([]domain.Message, error) {
	messages := make([]domain.Message, len(raw))
	for i, r := range raw {
		channel := r.Channel()
		text, ok, err := normalize.Normalize(r.Body(), channel)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		var content *string
		if ok {
			content = &text
		}
		messages[i] = domain.Message{
			Content:     content,
			Role:        classify.RoleOf(r.MessageType),
			SentAt:      r.SentAt,
			ContentType: channel,
		}
	}
	return messages, nil
}
