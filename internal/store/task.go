package store

import (
	"context"
	"database/sql"

	"github.com/taskboard/taskboard/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create inserts a task built from a normalized, validated draft and
	// returns it with its server-assigned id and timestamps.
	Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)

	// GetByID retrieves a task. Returns ErrTaskNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns one page of tasks matching filter together with the total
	// number of matches across all pages.
	List(ctx context.Context, filter ListFilter) ([]domain.Task, int, error)

	// Update applies a partial update and returns the stored result.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes a task. Returns ErrTaskNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error

	// BulkUpdateStatus sets the status of every listed task and returns how
	// many rows changed. Unknown ids are skipped.
	BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error)

	// BulkUpdatePriority sets the priority of every listed task and returns
	// how many rows changed. Unknown ids are skipped.
	BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error)

	// Statistics aggregates task counts by status and priority.
	Statistics(ctx context.Context) (domain.Statistics, error)

	// WithTx returns a TaskStore bound to tx. Use it with RunInTransaction
	// when several writes must commit together:
	//
	//	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//		_, err := tasks.WithTx(tx).BulkUpdateStatus(ctx, ids, domain.StatusDone)
	//		return err
	//	})
	WithTx(tx *sql.Tx) TaskStore
}
