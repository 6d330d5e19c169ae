package mocks

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Unset functions
// return the default values.
type MockTaskStore struct {
	CreateFn             func(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	GetByIDFn            func(ctx context.Context, id int64) (*domain.Task, error)
	ListFn               func(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error)
	UpdateFn             func(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteFn             func(ctx context.Context, id int64) error
	BulkUpdateStatusFn   func(ctx context.Context, ids []int64, status domain.Status) (int, error)
	BulkUpdatePriorityFn func(ctx context.Context, ids []int64, priority domain.Priority) (int, error)
	StatisticsFn         func(ctx context.Context) (domain.Statistics, error)

	Task         *domain.Task
	Tasks        []domain.Task
	Stats        domain.Statistics
	DefaultError error

	// Call counters for read paths, used to observe caching.
	ListCalls       atomic.Int32
	StatisticsCalls atomic.Int32
	WithTxCalls     atomic.Int32
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, draft)
	}
	return m.Task, m.DefaultError
}

// GetByID implements store.TaskStore.
func (m *MockTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return m.Task, m.DefaultError
}

// List implements store.TaskStore.
func (m *MockTaskStore) List(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error) {
	m.ListCalls.Add(1)
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	if m.DefaultError != nil {
		return nil, 0, m.DefaultError
	}
	return m.Tasks, len(m.Tasks), nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}
	return m.Task, m.DefaultError
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.DefaultError
}

// BulkUpdateStatus implements store.TaskStore.
func (m *MockTaskStore) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	if m.BulkUpdateStatusFn != nil {
		return m.BulkUpdateStatusFn(ctx, ids, status)
	}
	return len(ids), m.DefaultError
}

// BulkUpdatePriority implements store.TaskStore.
func (m *MockTaskStore) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error) {
	if m.BulkUpdatePriorityFn != nil {
		return m.BulkUpdatePriorityFn(ctx, ids, priority)
	}
	return len(ids), m.DefaultError
}

// Statistics implements store.TaskStore.
func (m *MockTaskStore) Statistics(ctx context.Context) (domain.Statistics, error) {
	m.StatisticsCalls.Add(1)
	if m.StatisticsFn != nil {
		return m.StatisticsFn(ctx)
	}
	return m.Stats, m.DefaultError
}

// WithTx returns the mock itself; transactions are not simulated.
func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	m.WithTxCalls.Add(1)
	return m
}
