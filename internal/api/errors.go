package api

import (
	"errors"
	"net/http"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/service"
	"github.com/taskboard/taskboard/internal/store"
)

// ErrInvalidPage is returned when the requested page does not exist.
var ErrInvalidPage = errors.New("invalid page")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, ErrInvalidPage):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, store.ErrInvalidFilter),
		errors.Is(err, service.ErrNoTaskIDs):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, ErrInvalidPage):
		return "Invalid page."

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Not found."

	case errors.Is(err, store.ErrDuplicate):
		return "Task already exists"

	case errors.Is(err, service.ErrNoTaskIDs):
		return "task_ids is required"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid input."

	case errors.Is(err, store.ErrInvalidFilter):
		return "Invalid filter parameters"

	default:
		return "An unexpected error occurred"
	}
}
