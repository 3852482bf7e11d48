package bootstrap

import (
	"context"
	"time"

	"ticket_analyzer/adapter/out/helpdesk"
	"ticket_analyzer/adapter/out/llm"
	"ticket_analyzer/adapter/out/sheets"
	"ticket_analyzer/config"
	"ticket_analyzer/core/port/out"
	"ticket_analyzer/core/service/analyzer"
	"ticket_analyzer/core/service/scoring"
	"ticket_analyzer/pkg/cache"
	"ticket_analyzer/pkg/logger"
	"ticket_analyzer/pkg/metrics"
	"ticket_analyzer/pkg/resilience"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	latencyWindow  = 1000
	cacheKeyPrefix = "ticket_analyzer:"
	connectTimeout = 10 * time.Second
)

type Dependencies struct {
	Config *config.Config
	Redis  *redis.Client

	Cache     out.Cache
	Helpdesk  *helpdesk.Client
	Directory out.DirectorySource
	Scorer    *scoring.Adapter
	Sinks     out.SinkOpener
	Metrics   *metrics.Registry

	Analyzer *analyzer.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	zlog := logger.Default().Zerolog()
	deps := &Dependencies{
		Config:  cfg,
		Metrics: metrics.NewRegistry(latencyWindow),
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	// Directory cache: Redis when configured, in-process otherwise
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, using in-memory directory cache")
			deps.Cache = cache.NewMemoryCache()
		} else {
			deps.Redis = client
			redisCache := cache.NewRedisCache(client, cacheKeyPrefix)
			deps.Cache = redisCache
			cleanups = append(cleanups, func() { _ = redisCache.Close() })
			logger.Info("Redis directory cache connected")
		}
	} else {
		deps.Cache = cache.NewMemoryCache()
	}

	// Helpdesk
	deps.Helpdesk = helpdesk.NewClient(helpdesk.Config{
		BaseURL:  cfg.HelpdeskBaseURL,
		Username: cfg.HelpdeskUser,
		Password: cfg.HelpdeskPassword,
		RPS:      cfg.HelpdeskRPS,
	}, nil, zlog)
	deps.Directory = helpdesk.NewCachedDirectory(deps.Helpdesk, deps.Cache, cfg.DirectoryCacheTTL, zlog)

	// Scoring oracle
	if cfg.HasScoring() {
		scorer, err := newScorer(cfg, deps.Metrics, zlog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Scorer = scorer
	} else {
		logger.Warn("OPENAI_API_KEY not set, scoring disabled")
	}

	// Spreadsheet sink
	if cfg.HasSheets() {
		creds, err := cfg.ServiceAccountJSON()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opener, err := sheets.NewOpener(ctx, creds, cfg.GoogleScopes, cfg.ShareEmail, zlog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Sinks = opener
	} else {
		logger.Warn("Google service account not configured, results will not be written to a spreadsheet")
	}

	analyzerDeps := analyzer.Deps{
		Tickets:   deps.Helpdesk,
		Messages:  deps.Helpdesk,
		Directory: deps.Directory,
		Sinks:     deps.Sinks,
		Metrics:   deps.Metrics,
	}
	// a nil *scoring.Adapter must stay a nil interface
	if deps.Scorer != nil {
		analyzerDeps.Scorer = deps.Scorer
	}
	deps.Analyzer = analyzer.NewService(analyzerDeps, analyzer.Config{
		Workers:      cfg.Workers,
		BatchTimeout: cfg.BatchTimeout,
		SheetTitle:   cfg.SpreadsheetTitle,
	}, zlog)

	return deps, cleanup, nil
}

func newScorer(cfg *config.Config, reg *metrics.Registry, zlog zerolog.Logger) (*scoring.Adapter, error) {
	rubric, err := config.LoadRubric(cfg.RubricFile)
	if err != nil {
		return nil, err
	}

	oracle := llm.NewOracle(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.LLMModel,
		Timeout: time.Duration(cfg.LLMTimeoutSec) * time.Second,
	}, nil, zlog)

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.LLMMaxRetries

	return scoring.NewAdapter(oracle, zlog,
		scoring.WithRubric(rubric),
		scoring.WithRetry(retry),
		scoring.WithLatencyTracker(reg.Tracker("oracle")),
	), nil
}
