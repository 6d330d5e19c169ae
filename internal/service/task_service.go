package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/events"
	"github.com/taskboard/taskboard/internal/platform/logger"
	"github.com/taskboard/taskboard/internal/redact"
	"github.com/taskboard/taskboard/internal/store"
)

// TaskService provides the operations behind the task REST resource.
type TaskService interface {
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error)
	// UpdateTask applies a partial update.
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	// ReplaceTask is a full update: the title is required, omitted optional
	// fields keep their stored values.
	ReplaceTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error)
	BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
}

type taskServiceImpl struct {
	tasks   store.TaskStore
	db      *sql.DB
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskService creates a TaskService. db is used to run bulk updates in a
// transaction and may be nil, in which case they run directly on the store.
// emitter may be nil when nobody listens for changes.
func NewTaskService(
	tasks store.TaskStore,
	db *sql.DB,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:   tasks,
		db:      db,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

// emit publishes a change. Listener failures are logged, never returned:
// the mutation itself already committed.
func (s *taskServiceImpl) emit(ctx context.Context, kind events.ChangeKind, ids ...int64) {
	if s.emitter == nil {
		return
	}
	// Listeners run after commit even if the caller has gone away.
	if err := s.emitter.EmitEvent(context.WithoutCancel(ctx), events.NewTaskChanged(kind, ids...)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task change listener failed",
			redact.Attr(err),
			slog.String("kind", string(kind)))
	}
}

// wrap converts store errors into service errors, keeping validation
// details in the chain.
func (s *taskServiceImpl) wrap(op, message string, err error) error {
	if store.IsNotFoundError(err) {
		return NewTaskServiceError(op, "task not found", ErrTaskNotFound)
	}
	return NewTaskServiceError(op, message, err)
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		log.Debug("rejected invalid task draft", redact.Attr(err))
		return nil, err
	}

	task, err := s.tasks.Create(ctx, draft)
	if err != nil {
		log.Error("failed to create task", redact.Attr(err))
		return nil, s.wrap("create_task", "failed to save task", err)
	}

	s.emit(ctx, events.TaskCreated, task.ID)
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve task",
				redact.Attr(err), slog.Int64("task_id", id))
		}
		return nil, s.wrap("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error) {
	tasks, total, err := s.tasks.List(ctx, filter.Normalize())
	if err != nil {
		if errors.Is(err, store.ErrInvalidFilter) {
			return nil, 0, err
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks", redact.Attr(err))
		return nil, 0, s.wrap("list_tasks", "failed to list tasks", err)
	}
	return tasks, total, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	return s.update(ctx, "update_task", id, patch)
}

func (s *taskServiceImpl) ReplaceTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title == nil {
		return nil, domain.ValidationErrors{
			domain.NewValidationError("title", "This field is required.", domain.ErrEmptyTitle),
		}
	}
	return s.update(ctx, "replace_task", id, patch)
}

func (s *taskServiceImpl) update(ctx context.Context, op string, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		log.Debug("rejected invalid task patch", redact.Attr(err), slog.Int64("task_id", id))
		return nil, err
	}

	task, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to update task", redact.Attr(err), slog.Int64("task_id", id))
		}
		return nil, s.wrap(op, "failed to update task", err)
	}

	s.emit(ctx, events.TaskUpdated, id)
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
				redact.Attr(err), slog.Int64("task_id", id))
		}
		return s.wrap("delete_task", "failed to delete task", err)
	}
	s.emit(ctx, events.TaskDeleted, id)
	return nil
}

// inTx runs fn against a transactional store when a database is available.
func (s *taskServiceImpl) inTx(ctx context.Context, fn func(ctx context.Context, tasks store.TaskStore) error) error {
	if s.db == nil {
		return fn(ctx, s.tasks)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.tasks.WithTx(tx))
	})
}

func (s *taskServiceImpl) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoTaskIDs
	}
	if !status.Valid() {
		_, err := domain.ParseStatus(string(status))
		return 0, err
	}

	var updated int
	err := s.inTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		n, err := tasks.BulkUpdateStatus(ctx, ids, status)
		updated = n
		return err
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("bulk status update failed", redact.Attr(err))
		return 0, s.wrap("bulk_update_status", "failed to update tasks", err)
	}

	if updated > 0 {
		s.emit(ctx, events.TasksStatusBulk, ids...)
	}
	return updated, nil
}

func (s *taskServiceImpl) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoTaskIDs
	}
	if !priority.Valid() {
		_, err := domain.ParsePriority(string(priority))
		return 0, err
	}

	var updated int
	err := s.inTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		n, err := tasks.BulkUpdatePriority(ctx, ids, priority)
		updated = n
		return err
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("bulk priority update failed", redact.Attr(err))
		return 0, s.wrap("bulk_update_priority", "failed to update tasks", err)
	}

	if updated > 0 {
		s.emit(ctx, events.TasksPriorityBulk, ids...)
	}
	return updated, nil
}

func (s *taskServiceImpl) Statistics(ctx context.Context) (domain.Statistics, error) {
	stats, err := s.tasks.Statistics(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute statistics", redact.Attr(err))
		return domain.Statistics{}, s.wrap("statistics", "failed to compute statistics", err)
	}
	return stats, nil
}
