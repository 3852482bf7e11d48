package analyzer

import (
	"context"
	"errors"
	"sync"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/core/port/out"
)

type fakeTickets struct {
	tickets []*domain.Ticket
	err     error
}

func (f *fakeTickets) FetchTickets(_ context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	if filter.Limit < len(f.tickets) {
		return f.tickets[:filter.Limit], nil
	}
	return f.tickets, nil
}

type fakeMessages struct {
	threads map[int64][]domain.RawMessage
	errs    map[int64]error
	block   map[int64]bool
	panics  map[int64]bool
}

func (f *fakeMessages) FetchMessages(ctx context.Context, caseID int64) ([]domain.RawMessage, error) {
	if f.block[caseID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.panics[caseID] {
		panic("malformed payload")
	}
	if err := f.errs[caseID]; err != nil {
		return nil, err
	}
	return f.threads[caseID], nil
}

type fakeDirectory struct {
	staff  map[int64]string
	groups map[int64]string
	err    error
	calls  int
	ctxErr error
	mu     sync.Mutex
}

func (f *fakeDirectory) StaffDirectory(ctx context.Context) (map[int64]string, error) {
	f.mu.Lock()
	f.calls++
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return f.staff, f.err
}

func (f *fakeDirectory) GroupDirectory(context.Context) (map[int64]string, error) {
	return f.groups, f.err
}

// fakeScorer fails threads whose length is listed in failThreadLen.
type fakeScorer struct {
	failThreadLen map[int]bool
}

func (f *fakeScorer) Score(_ context.Context, thread []domain.Message) (*domain.Score, error) {
	if len(thread) == 0 {
		return nil, nil
	}
	if f.failThreadLen[len(thread)] {
		return nil, errors.New("oracle exhausted")
	}
	return &domain.Score{DifficultyLevel: "low", TotalScore: 7}, nil
}

type memorySink struct {
	tickets [][]any
	scores  [][]any
}

func (m *memorySink) WriteTicketRows(_ context.Context, rows [][]any) error {
	m.tickets = rows
	return nil
}

func (m *memorySink) WriteScoreRows(_ context.Context, rows [][]any) error {
	m.scores = rows
	return nil
}

func (m *memorySink) URL() string { return "memory://sheet" }

type fakeOpener struct {
	sink  *memorySink
	err   error
	title string
}

func (f *fakeOpener) Open(_ context.Context, title string) (out.Sink, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.title = title
	return f.sink, nil
}
