package out

import "context"

// Sink receives the tabular output of one run. Rows carry their header as the first row.
// Score rows are placed to the right of the ticket rows, aligned row by row.
type Sink interface {
	WriteTicketRows(ctx context.Context, rows [][]any) error
	WriteScoreRows(ctx context.Context, rows [][]any) error
	URL() string
}

// SinkOpener creates the destination for a run, e.g. a new spreadsheet.
type SinkOpener interface {
	Open(ctx context.Context, title string) (Sink, error)
}
