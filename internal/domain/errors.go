package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is usually wrapped by a *ValidationError naming the field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when a task identifier is malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidStatus is returned when a status is not one of the board columns.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidPriority is returned when a priority is not a known level.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrEmptyTitle is returned when a task title is empty after trimming.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title is too long")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field. The cause is
// wrapped so callers can still match ErrValidation or a more specific sentinel.
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports every ValidationError as an ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects the errors of several fields so a request can
// report all of them at once.
type ValidationErrors []*ValidationError

// Add appends a field error.
func (v *ValidationErrors) Add(err *ValidationError) {
	if err != nil {
		*v = append(*v, err)
	}
}

// Err returns nil when no field failed, otherwise the collection itself.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Fields maps each failing field to its first message.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual field errors to errors.Is/errors.As.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v)+1)
	out = append(out, ErrValidation)
	for _, e := range v {
		out = append(out, e)
	}
	return out
}

// FieldErrors extracts the field map from err when it carries validation
// details, returning nil otherwise.
func FieldErrors(err error) map[string]string {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields()
	}
	var one *ValidationError
	if errors.As(err, &one) && one.Field != "" {
		return map[string]string{one.Field: one.Message}
	}
	return nil
}
