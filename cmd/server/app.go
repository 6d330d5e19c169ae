package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	apiMiddleware "github.com/taskboard/taskboard/internal/api/middleware"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/events"
	"github.com/taskboard/taskboard/internal/platform/cache"
	"github.com/taskboard/taskboard/internal/platform/postgres"
	"github.com/taskboard/taskboard/internal/redact"
	"github.com/taskboard/taskboard/internal/service"
	"github.com/taskboard/taskboard/internal/store"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Backing services; redis is nil when not configured.
	db    *sql.DB
	redis *redis.Client

	taskStore    store.TaskStore
	taskService  service.TaskService
	eventEmitter *events.InMemoryEventEmitter

	apiKey  *apiMiddleware.APIKeyMiddleware
	limiter apiMiddleware.Limiter
	metrics *apiMiddleware.Metrics

	tracerProvider *sdktrace.TracerProvider
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must be established before; redisClient may be nil.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, redisClient *redis.Client) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	var err error
	app.apiKey, err = apiMiddleware.NewAPIKeyMiddleware(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to configure API key authentication: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.taskStore = postgres.NewTaskStore(db, logger)
	if cfg.CacheEnabled() && redisClient != nil {
		taskCache := cache.NewTaskCache(app.taskStore, redisClient, cfg.Cache.TTL, logger)
		app.eventEmitter.RegisterHandler(taskCache)
		app.taskStore = taskCache
		logger.Info("Task read cache enabled", "ttl", cfg.Cache.TTL)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, db, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.limiter, err = newLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = apiMiddleware.NewMetrics(registry)

	// Spans are not exported; the SDK provider gives every request a real
	// W3C trace ID that shows up in logs and error bodies.
	app.tracerProvider = sdktrace.NewTracerProvider()
	otel.SetTracerProvider(app.tracerProvider)

	logger.Info("Application initialized successfully")
	return app, nil
}

// newLimiter builds the configured rate limiter, or nil when rate limiting
// is disabled.
func newLimiter(cfg config.RateLimitConfig, redisClient *redis.Client) (apiMiddleware.Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("rate limit backend redis requires redis.url")
		}
		return apiMiddleware.NewRedisLimiter(redisClient, cfg.Requests, cfg.Window), nil
	default:
		return apiMiddleware.NewMemoryLimiter(cfg.Requests, cfg.Window), nil
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.tracerProvider != nil {
		if err := app.tracerProvider.Shutdown(ctx); err != nil {
			app.logger.Error("Error shutting down tracer provider", redact.Attr(err))
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", redact.Attr(err))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", redact.Attr(err))
		}
	}

	app.logger.Info("Application shutdown completed")
}
