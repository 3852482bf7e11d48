package bootstrap

import (
	"context"

	"ticket_analyzer/config"
	"ticket_analyzer/core/domain"
	"ticket_analyzer/pkg/logger"
)

// RunBatch performs one analysis run outside the HTTP server.
func RunBatch(ctx context.Context, cfg *config.Config, req domain.AnalysisRequest) (*domain.BatchResult, error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := deps.Analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, f := range result.Failures {
		logger.WithFields(map[string]any{"case_id": f.CaseID, "stage": f.Stage}).Warn("Ticket skipped: %s", f.Error)
	}
	for _, f := range result.ScoreFailures {
		logger.WithFields(map[string]any{"case_id": f.CaseID, "stage": f.Stage}).Warn("Ticket not scored: %s", f.Error)
	}
	return result, nil
}
