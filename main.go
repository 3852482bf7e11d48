package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket_analyzer/config"
	"ticket_analyzer/core/domain"
	"ticket_analyzer/internal/bootstrap"
	"ticket_analyzer/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

func main() {
	// Load .env file if exists (for local development)
	envErr := godotenv.Load()

	mode := flag.String("mode", "api", "Run mode: api, batch")
	limit := flag.Int("limit", 10, "Batch mode: number of tickets to analyze")
	status := flag.String("status", "closed", "Batch mode: ticket status filter")
	useAI := flag.Bool("ai", false, "Batch mode: score threads with the oracle")
	title := flag.String("title", "", "Batch mode: spreadsheet title")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "ticket-analyzer",
		Console: cfg.IsDevelopment(),
	})
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	switch *mode {
	case "api":
		runAPI(cfg)
	case "batch":
		runBatch(cfg, domain.AnalysisRequest{
			Filter: domain.TicketFilter{Limit: *limit, Status: *status},
			UseAI:  *useAI,
			Title:  *title,
		})
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func runAPI(cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("Error shutting down: %v", err)
		} else {
			logger.Info("API server shut down gracefully")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

func runBatch(cfg *config.Config, req domain.AnalysisRequest) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := bootstrap.RunBatch(ctx, cfg, req)
	if err != nil {
		logger.Fatal("Analysis failed: %v", err)
	}

	logger.Info("Analysis finished: %d of %d tickets enriched, %d scored", result.Succeeded, result.Total, result.Scored)
	if result.SheetURL != "" {
		logger.Info("Results written to %s", result.SheetURL)
	}

	summary, err := json.MarshalIndent(map[string]any{
		"run_id":         result.RunID,
		"total":          result.Total,
		"succeeded":      result.Succeeded,
		"failed":         result.Failed,
		"scored":         result.Scored,
		"failures":       result.Failures,
		"score_failures": result.ScoreFailures,
		"sheet_url":      result.SheetURL,
		"duration":       result.Duration.String(),
	}, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode summary: %v", err)
	}
	fmt.Println(string(summary))
}
