// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database. Tests using it are skipped unless DATABASE_URL (or
// TASKBOARD_TEST_DB_URL) points at a disposable database.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard/internal/platform/postgres"
)

// TestTimeout bounds connection and migration work in tests.
const TestTimeout = 30 * time.Second

var migrateOnce sync.Once

// DatabaseURL returns the database URL for tests, or "" when none is configured.
func DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("TASKBOARD_TEST_DB_URL")
}

// GetTestDBWithT opens the test database, applies the embedded migrations
// once per process and closes the connection when the test ends. The test
// is skipped when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skip("DATABASE_URL or TASKBOARD_TEST_DB_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, url)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close database connection: %v", err)
		}
	})

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", nil)
	})
	require.NoError(t, migrateErr, "failed to apply migrations")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, keeping
// tests isolated from each other.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
