package service

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/events"
	"github.com/taskboard/taskboard/internal/store"
)

// MockTaskStore mocks store.TaskStore.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Int(1), args.Error(2)
}

func (m *MockTaskStore) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskStore) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	args := m.Called(ctx, ids, status)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error) {
	args := m.Called(ctx, ids, priority)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) Statistics(ctx context.Context) (domain.Statistics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Statistics), args.Error(1)
}

func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	args := m.Called(tx)
	return args.Get(0).(store.TaskStore)
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	events  []*events.TaskChanged
	ctxErrs []error
	err     error
}

func (r *recordingEmitter) EmitEvent(ctx context.Context, ev *events.TaskChanged) error {
	r.events = append(r.events, ev)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}
