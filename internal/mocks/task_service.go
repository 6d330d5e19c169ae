package mocks

import (
	"context"
	"sync"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/service"
	"github.com/taskboard/taskboard/internal/store"
)

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	// Custom behavior functions
	CreateTaskFn         func(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	GetTaskFn            func(ctx context.Context, id int64) (*domain.Task, error)
	ListTasksFn          func(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error)
	UpdateTaskFn         func(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	ReplaceTaskFn        func(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTaskFn         func(ctx context.Context, id int64) error
	BulkUpdateStatusFn   func(ctx context.Context, ids []int64, status domain.Status) (int, error)
	BulkUpdatePriorityFn func(ctx context.Context, ids []int64, priority domain.Priority) (int, error)
	StatisticsFn         func(ctx context.Context) (domain.Statistics, error)

	// Default return values
	Task         *domain.Task
	Tasks        []domain.Task
	Stats        domain.Statistics
	DefaultError error

	// Call tracking for verification
	mu           sync.Mutex
	ListFilters  []store.ListFilter
	Patches      []domain.TaskPatch
	DeletedIDs   []int64
	CreateCalled int
}

var _ service.TaskService = (*MockTaskService)(nil)

// CreateTask implements the TaskService.CreateTask method
func (m *MockTaskService) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	m.mu.Lock()
	m.CreateCalled++
	m.mu.Unlock()
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, draft)
	}
	return m.Task, m.DefaultError
}

// GetTask implements the TaskService.GetTask method
func (m *MockTaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}
	return m.Task, m.DefaultError
}

// ListTasks implements the TaskService.ListTasks method
func (m *MockTaskService) ListTasks(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error) {
	m.mu.Lock()
	m.ListFilters = append(m.ListFilters, filter)
	m.mu.Unlock()
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, filter)
	}
	return m.Tasks, len(m.Tasks), m.DefaultError
}

// UpdateTask implements the TaskService.UpdateTask method
func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	m.mu.Lock()
	m.Patches = append(m.Patches, patch)
	m.mu.Unlock()
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, id, patch)
	}
	return m.Task, m.DefaultError
}

// ReplaceTask implements the TaskService.ReplaceTask method
func (m *MockTaskService) ReplaceTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	m.mu.Lock()
	m.Patches = append(m.Patches, patch)
	m.mu.Unlock()
	if m.ReplaceTaskFn != nil {
		return m.ReplaceTaskFn(ctx, id, patch)
	}
	return m.Task, m.DefaultError
}

// DeleteTask implements the TaskService.DeleteTask method
func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) error {
	m.mu.Lock()
	m.DeletedIDs = append(m.DeletedIDs, id)
	m.mu.Unlock()
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, id)
	}
	return m.DefaultError
}

// BulkUpdateStatus implements the TaskService.BulkUpdateStatus method
func (m *MockTaskService) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	if m.BulkUpdateStatusFn != nil {
		return m.BulkUpdateStatusFn(ctx, ids, status)
	}
	if m.DefaultError != nil {
		return 0, m.DefaultError
	}
	return len(ids), nil
}

// BulkUpdatePriority implements the TaskService.BulkUpdatePriority method
func (m *MockTaskService) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error) {
	if m.BulkUpdatePriorityFn != nil {
		return m.BulkUpdatePriorityFn(ctx, ids, priority)
	}
	if m.DefaultError != nil {
		return 0, m.DefaultError
	}
	return len(ids), nil
}

// Statistics implements the TaskService.Statistics method
func (m *MockTaskService) Statistics(ctx context.Context) (domain.Statistics, error) {
	if m.StatisticsFn != nil {
		return m.StatisticsFn(ctx)
	}
	return m.Stats, m.DefaultError
}

// RecordedListFilters returns a copy of the filters passed to ListTasks.
// Use it instead of ListFilters when the mock is called from another goroutine.
func (m *MockTaskService) RecordedListFilters() []store.ListFilter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.ListFilter(nil), m.ListFilters...)
}

// RecordedPatches returns a copy of the patches passed to UpdateTask and ReplaceTask.
func (m *MockTaskService) RecordedPatches() []domain.TaskPatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TaskPatch(nil), m.Patches...)
}

// RecordedDeletes returns a copy of the ids passed to DeleteTask.
func (m *MockTaskService) RecordedDeletes() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.DeletedIDs...)
}
