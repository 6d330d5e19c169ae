package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/platform/logger"
	"github.com/taskboard/taskboard/internal/redact"
	"github.com/taskboard/taskboard/internal/store"
)

const taskColumns = `id, title, description, status, priority, due_date, created_at, updated_at`

// orderExpr sorts enum columns by their natural order instead of alphabetically.
var orderExpr = map[string]string{
	"priority": `CASE priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'HIGH' THEN 3 END`,
	"status":   `CASE status WHEN 'BACKLOG' THEN 1 WHEN 'IN_PROGRESS' THEN 2 WHEN 'DONE' THEN 3 END`,
}

// TaskStore implements store.TaskStore on PostgreSQL.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore over a connection or transaction owned by
// the caller. If logger is nil, the default logger is used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithTx implements store.TaskStore.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		status      string
		priority    string
		dueDate     sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &status, &priority, &dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		d := domain.DateOf(dueDate.Time)
		t.DueDate = &d
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	return &t, nil
}

func dateArg(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		log.Warn("task validation failed during create", redact.Attr(err))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query,
		draft.Title,
		stringArg(draft.Description),
		string(draft.Status),
		string(draft.Priority),
		dateArg(draft.DueDate),
	))
	if err != nil {
		log.Error("failed to create task", redact.Attr(err))
		return nil, MapError(err)
	}

	log.Info("task created",
		slog.Int64("task_id", task.ID),
		slog.String("status", string(task.Status)))
	return task, nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID", redact.Attr(err), slog.Int64("task_id", id))
		return nil, MapError(err)
	}
	return task, nil
}

// whereClause renders the filter predicates into SQL with numbered
// placeholders starting at $1.
func whereClause(f store.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Priority != nil {
		add("priority = $%d", string(*f.Priority))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if f.DueDateFrom != nil {
		add("due_date >= $%d", f.DueDateFrom.Time())
	}
	if f.DueDateTo != nil {
		add("due_date <= $%d", f.DueDateTo.Time())
	}
	if f.Overdue {
		add("due_date < $%d AND status <> 'DONE'", f.Today.Time())
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func orderClause(f store.ListFilter) (string, error) {
	column, desc, err := f.OrderBy()
	if err != nil {
		return "", err
	}
	expr := column
	if e, ok := orderExpr[column]; ok {
		expr = e
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	nulls := ""
	if column == "due_date" {
		nulls = " NULLS LAST"
	}
	// id breaks ties so pages stay stable
	return fmt.Sprintf(" ORDER BY %s %s%s, id %s", expr, dir, nulls, dir), nil
}

// List implements store.TaskStore.
func (s *TaskStore) List(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	filter = filter.Normalize()

	order, err := orderClause(filter)
	if err != nil {
		return nil, 0, err
	}
	where, args := whereClause(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", redact.Attr(err))
		return nil, 0, MapError(err)
	}
	if total == 0 {
		return []domain.Task{}, 0, nil
	}

	pageArgs := append(args[:len(args):len(args)], filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM tasks%s%s LIMIT $%d OFFSET $%d`,
		taskColumns, where, order, len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		log.Error("failed to list tasks", redact.Attr(err))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]domain.Task, 0, filter.PageSize)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", redact.Attr(err))
			return nil, 0, MapError(err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", redact.Attr(err))
		return nil, 0, MapError(err)
	}

	log.Debug("tasks listed",
		slog.Int("count", len(tasks)),
		slog.Int("total", total),
		slog.Int("page", filter.Page))
	return tasks, total, nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		log.Warn("task validation failed during update", redact.Attr(err), slog.Int64("task_id", id))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if patch.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description.IsSet() {
		set("description", stringArg(patch.Description.Ptr()))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.DueDate.IsSet() {
		set("due_date", dateArg(patch.DueDate.Ptr()))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task", redact.Attr(err), slog.Int64("task_id", id))
		return nil, MapError(err)
	}

	log.Info("task updated", slog.Int64("task_id", id), slog.Int("fields", len(sets)))
	return task, nil
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task", redact.Attr(err), slog.Int64("task_id", id))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	log.Info("task deleted", slog.Int64("task_id", id))
	return nil
}

// BulkUpdateStatus implements store.TaskStore.
func (s *TaskStore) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidStatus)
	}
	return s.bulkSet(ctx, "status", string(status), ids)
}

// BulkUpdatePriority implements store.TaskStore.
func (s *TaskStore) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error) {
	if !priority.Valid() {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidPriority)
	}
	return s.bulkSet(ctx, "priority", string(priority), ids)
}

func (s *TaskStore) bulkSet(ctx context.Context, column, value string, ids []int64) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, value)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}

	query := fmt.Sprintf(`UPDATE tasks SET %s = $1 WHERE id IN (%s)`, column, strings.Join(placeholders, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("bulk update failed", redact.Attr(err), slog.String("column", column))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("bulk update applied",
		slog.String("column", column),
		slog.String("value", value),
		slog.Int("requested", len(ids)),
		slog.Int64("updated", n))
	return int(n), nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Statistics implements store.TaskStore.
func (s *TaskStore) Statistics(ctx context.Context) (domain.Statistics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	start := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, priority, COUNT(*) FROM tasks GROUP BY status, priority`)
	if err != nil {
		log.Error("failed to query statistics", redact.Attr(err))
		return domain.Statistics{}, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var stats domain.Statistics
	for rows.Next() {
		var (
			status, priority string
			n                int
		)
		if err := rows.Scan(&status, &priority, &n); err != nil {
			return domain.Statistics{}, MapError(err)
		}
		stats.Total += n
		stats.AddStatus(domain.Status(status), n)
		stats.AddPriority(domain.Priority(priority), n)
	}
	if err := rows.Err(); err != nil {
		return domain.Statistics{}, MapError(err)
	}

	log.Debug("statistics computed",
		slog.Int("total", stats.Total),
		slog.Duration("elapsed", time.Since(start)))
	return stats, nil
}
