package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"ErrTaskNotFound", ErrTaskNotFound, true},
		{"wrapped ErrTaskNotFound", fmt.Errorf("get task 4: %w", ErrTaskNotFound), true},
		{"store error around not found", NewStoreError("task", "get", "missing", ErrTaskNotFound), true},
		{"duplicate", ErrDuplicate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, IsDuplicateError(nil))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrDuplicate)))
	assert.False(t, IsDuplicateError(ErrTaskNotFound))
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("connection reset")
	storeErr := NewStoreError("task", "update", "database error", originalErr)

	assert.Equal(t, "update operation on task failed: database error: connection reset", storeErr.Error())
	assert.ErrorIs(t, storeErr, originalErr)

	bare := NewStoreError("task", "list", "bad ordering", nil)
	assert.Equal(t, "list operation on task failed: bad ordering", bare.Error())
}
