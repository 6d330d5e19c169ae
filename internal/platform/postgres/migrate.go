package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir is the directory inside the embedded filesystem.
const MigrationsDir = "migrations"

// slogGooseLogger adapts goose's printf-style logger onto slog.
type slogGooseLogger struct {
	log *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate runs a goose command ("up", "down", "status", "version", "reset")
// against db using the migrations compiled into the binary.
func Migrate(ctx context.Context, db *sql.DB, command string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "migrations"), slog.String("command", command))

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, MigrationsDir)
	case "down":
		err = goose.DownContext(ctx, db, MigrationsDir)
	case "reset":
		err = goose.ResetContext(ctx, db, MigrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db, MigrationsDir)
	case "version":
		err = goose.VersionContext(ctx, db, MigrationsDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	log.Info("migration command completed")
	return nil
}
