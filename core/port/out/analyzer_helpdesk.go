package out

import (
	"context"

	"ticket_analyzer/core/domain"
)

// TicketSource lists tickets matching a filter. Pagination is the adapter's concern;
// the returned slice is the complete, finite result.
type TicketSource interface {
	FetchTickets(ctx context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error)
}

// MessageSource returns the raw thread of one ticket in source order.
type MessageSource interface {
	FetchMessages(ctx context.Context, caseID int64) ([]domain.RawMessage, error)
}

// DirectorySource resolves staff and group identifiers to display names.
type DirectorySource interface {
	StaffDirectory(ctx context.Context) (map[int64]string, error)
	GroupDirectory(ctx context.Context) (map[int64]string, error)
}
