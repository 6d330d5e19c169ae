package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taskboard/taskboard/internal/api/shared"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/platform/logger"
	"github.com/taskboard/taskboard/internal/service"
)

// BulkStatusRequest is the body of POST /api/tasks/bulk_update_status/.
type BulkStatusRequest struct {
	TaskIDs []int64       `json:"task_ids" validate:"required,min=1,dive,gt=0"`
	Status  domain.Status `json:"status" validate:"required"`
}

// BulkPriorityRequest is the body of POST /api/tasks/bulk_update_priority/.
type BulkPriorityRequest struct {
	TaskIDs  []int64         `json:"task_ids" validate:"required,min=1,dive,gt=0"`
	Priority domain.Priority `json:"priority" validate:"required"`
}

// BulkStatusResponse reports the outcome of a bulk status update.
type BulkStatusResponse struct {
	Success      bool          `json:"success"`
	UpdatedCount int           `json:"updated_count"`
	Status       domain.Status `json:"status"`
}

// BulkPriorityResponse reports the outcome of a bulk priority update.
type BulkPriorityResponse struct {
	Success      bool            `json:"success"`
	UpdatedCount int             `json:"updated_count"`
	Priority     domain.Priority `json:"priority"`
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// Routes mounts the task endpoints on r. Every path is registered with and
// without a trailing slash.
func (h *TaskHandler) Routes(r chi.Router) {
	both := func(method, pattern string, fn http.HandlerFunc) {
		r.Method(method, pattern, fn)
		r.Method(method, pattern+"/", fn)
	}

	both(http.MethodGet, "/tasks", h.ListTasks)
	both(http.MethodPost, "/tasks", h.CreateTask)
	both(http.MethodPost, "/tasks/bulk_update_status", h.BulkUpdateStatus)
	both(http.MethodPost, "/tasks/bulk_update_priority", h.BulkUpdatePriority)
	both(http.MethodGet, "/tasks/statistics", h.Statistics)
	both(http.MethodGet, "/tasks/{id}", h.GetTask)
	both(http.MethodPut, "/tasks/{id}", h.ReplaceTask)
	both(http.MethodPatch, "/tasks/{id}", h.UpdateTask)
	both(http.MethodDelete, "/tasks/{id}", h.DeleteTask)
}

// handleError writes the response for a failed operation. Validation
// failures carry their field map; everything else gets a safe message.
func (h *TaskHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrValidation) && domain.FieldErrors(err) != nil {
		shared.RespondWithValidationError(w, r, err)
		return
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// taskID parses the {id} path parameter. Non-numeric ids cannot name a
// task, so they are answered with 404.
func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("invalid task id in path",
			slog.String("task_id", raw))
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// ListTasks handles GET /api/tasks/
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	tasks, total, err := h.tasks.ListTasks(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !pageExists(filter, total) {
		h.handleError(w, r, ErrInvalidPage)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewPage(r, filter, total, tasks))
}

// GetTask handles GET /api/tasks/{id}/
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CreateTask handles POST /api/tasks/
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var draft domain.TaskDraft
	if err := shared.DecodeJSON(w, r, &draft); err != nil {
		h.handleError(w, r, err)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), draft)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	log.Info("task created", slog.Int64("task_id", task.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ReplaceTask handles PUT /api/tasks/{id}/
func (h *TaskHandler) ReplaceTask(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.tasks.ReplaceTask)
}

// UpdateTask handles PATCH /api/tasks/{id}/
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.tasks.UpdateTask)
}

func (h *TaskHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error),
) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	var patch domain.TaskPatch
	if err := shared.DecodeJSON(w, r, &patch); err != nil {
		h.handleError(w, r, err)
		return
	}

	task, err := apply(r.Context(), id, patch)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("task updated",
		slog.Int64("task_id", id), slog.String("method", r.Method))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}/
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("task deleted", slog.Int64("task_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpdateStatus handles POST /api/tasks/bulk_update_status/
func (h *TaskHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkStatusRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.handleError(w, r, err)
		return
	}

	n, err := h.tasks.BulkUpdateStatus(r.Context(), req.TaskIDs, req.Status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BulkStatusResponse{
		Success:      true,
		UpdatedCount: n,
		Status:       req.Status,
	})
}

// BulkUpdatePriority handles POST /api/tasks/bulk_update_priority/
func (h *TaskHandler) BulkUpdatePriority(w http.ResponseWriter, r *http.Request) {
	var req BulkPriorityRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.handleError(w, r, err)
		return
	}

	n, err := h.tasks.BulkUpdatePriority(r.Context(), req.TaskIDs, req.Priority)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BulkPriorityResponse{
		Success:      true,
		UpdatedCount: n,
		Priority:     req.Priority,
	})
}

// Statistics handles GET /api/tasks/statistics/
func (h *TaskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tasks.Statistics(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
