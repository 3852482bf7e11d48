package out

import (
	"context"

	"ticket_analyzer/core/domain"
)

// ScoringOracle sends a rubric and a cleaned thread to the external scoring service
// and returns its raw text response.
type ScoringOracle interface {
	Invoke(ctx context.Context, prompt string, thread []domain.Message) (string, error)
}
