package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/service"
	"github.com/taskboard/taskboard/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{"nil error", nil, http.StatusInternalServerError, "An unexpected error occurred"},
		{"service not found", service.ErrTaskNotFound, http.StatusNotFound, "Not found."},
		{"wrapped service not found",
			service.NewTaskServiceError("get_task", "task not found", service.ErrTaskNotFound),
			http.StatusNotFound, "Not found."},
		{"store not found", fmt.Errorf("lookup: %w", store.ErrTaskNotFound), http.StatusNotFound, "Not found."},
		{"invalid page", ErrInvalidPage, http.StatusNotFound, "Invalid page."},
		{"duplicate", store.ErrDuplicate, http.StatusConflict, "Task already exists"},
		{"validation", domain.NewValidationError("title", "Title cannot be empty.", domain.ErrEmptyTitle),
			http.StatusBadRequest, "Invalid input."},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest, "Invalid input."},
		{"invalid filter", store.ErrInvalidFilter, http.StatusBadRequest, "Invalid filter parameters"},
		{"no ids", service.ErrNoTaskIDs, http.StatusBadRequest, "task_ids is required"},
		{"unknown", errors.New(`pq: relation "tasks" does not exist`), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStatus, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.expectedMsg, GetSafeErrorMessage(tc.err))
		})
	}
}
