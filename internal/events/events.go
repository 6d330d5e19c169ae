package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChangeKind names the mutation behind a TaskChanged event.
type ChangeKind string

// Mutation kinds.
const (
	TaskCreated       ChangeKind = "created"
	TaskUpdated       ChangeKind = "updated"
	TaskDeleted       ChangeKind = "deleted"
	TasksStatusBulk   ChangeKind = "bulk_status"
	TasksPriorityBulk ChangeKind = "bulk_priority"
)

// TaskChanged is emitted after a mutation has been committed.
type TaskChanged struct {
	ID         uuid.UUID  `json:"id"`
	Kind       ChangeKind `json:"kind"`
	TaskIDs    []int64    `json:"task_ids"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewTaskChanged creates an event for the given tasks.
func NewTaskChanged(kind ChangeKind, taskIDs ...int64) *TaskChanged {
	return &TaskChanged{
		ID:         uuid.New(),
		Kind:       kind,
		TaskIDs:    taskIDs,
		OccurredAt: time.Now().UTC(),
	}
}

// EventHandler processes task change events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskChanged) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskChanged) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskChanged) error {
	return f(ctx, event)
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskChanged) error
}
