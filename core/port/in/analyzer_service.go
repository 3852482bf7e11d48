package in

import (
	"context"

	"ticket_analyzer/core/domain"
)

// AnalyzerService runs ticket analysis batches.
type AnalyzerService interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.BatchResult, error)
	Stats() map[string]any
}
