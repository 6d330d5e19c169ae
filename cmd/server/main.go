// Package main implements the entry point for the taskboard API server,
// which serves the task REST resource backed by PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/platform/cache"
	"github.com/taskboard/taskboard/internal/platform/logger"
	"github.com/taskboard/taskboard/internal/platform/postgres"
	"github.com/taskboard/taskboard/internal/redact"
)

func main() {
	configPath := flag.String("config", "", "path to an optional config.yaml")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrateCmd); err != nil {
		log.Printf("taskboard server: %s", redact.Error(err))
		stop()
		os.Exit(1)
	}
}

// run loads configuration, connects to the backing services and either runs
// a migration command or serves HTTP until ctx is canceled.
func run(ctx context.Context, configPath, migrateCmd string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"cache_enabled", cfg.CacheEnabled())

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, migrateCmd, l)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			_ = db.Close()
			return err
		}
		l.Info("Connected to redis")
	}

	app, err := newApplication(cfg, l, db, redisClient)
	if err != nil {
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
