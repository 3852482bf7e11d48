package bootstrap

import (
	"context"
	"strings"
	"time"

	"ticket_analyzer/adapter/in/http"
	"ticket_analyzer/config"
	"ticket_analyzer/infra/middleware"
	"ticket_analyzer/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

const (
	analyzeRateLimit  = 10
	analyzeRateWindow = time.Minute
	maxRequestBody    = 64 * 1024
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app, stop := NewApp(cfg, deps)
	return app, func() {
		stop()
		cleanup()
	}, nil
}

// NewApp builds the fiber application around already constructed dependencies.
func NewApp(cfg *config.Config, deps *Dependencies) (*fiber.App, func()) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json serializes noticeably faster than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: maxRequestBody,

		// Analysis runs are long; the batch timeout bounds them instead
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.BatchTimeout + time.Minute,
		IdleTimeout:  2 * time.Minute,

		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.RequestID())       // 1. Request ID
	app.Use(middleware.Recover())         // 2. Panic recovery
	app.Use(middleware.SecurityHeaders()) // 3. Security headers
	app.Use(middleware.RequestLogger())   // 4. Request logging

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// AllowCredentials requires explicit origins
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		allowOrigins = "*"
		allowCredentials = false
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	checks := map[string]http.HealthChecker{}
	if deps.Redis != nil {
		checks["redis"] = redisPinger{deps.Redis}
	}
	http.NewHealthHandler(checks).Register(app)

	rateLimiter := middleware.NewRateLimiter(analyzeRateLimit, analyzeRateWindow)
	http.NewAnalyzeHandler(deps.Analyzer).Register(app,
		rateLimiter.Handler(),
		middleware.MaxBodySize(maxRequestBody),
		middleware.RequireJSON(),
	)

	logger.Info("API server initialized successfully")
	return app, rateLimiter.Stop
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
