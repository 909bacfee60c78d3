package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
		kind error
		is   func(error) bool
	}{
		{"not found", NewNotFoundError("quote", "123"), `quote with id "123" not found`, ErrNotFound, IsNotFound},
		{"not found without id", NewNotFoundError("profile", ""), "profile not found", ErrNotFound, IsNotFound},
		{"conflict", NewConflictError("tag", "name already taken"), "tag conflict: name already taken", ErrConflict, IsConflict},
		{"validation", NewValidationError("rating", "must be between 1 and 5"), "validation failed for rating: must be between 1 and 5", ErrValidation, IsValidation},
		{"validation without field", NewValidationError("", "empty file"), "validation failed: empty file", ErrValidation, IsValidation},
		{"validation with value", NewValidationErrorWithValue("status", "unknown status", "lost"), "validation failed for status: unknown status", ErrValidation, IsValidation},
		{"forbidden", NewForbiddenError("delete", "read only"), `operation "delete" forbidden: read only`, ErrForbidden, IsForbidden},
		{"forbidden without reason", NewForbiddenError("delete", ""), `operation "delete" forbidden`, ErrForbidden, IsForbidden},
		{"unavailable", NewUnavailableError("catalog", "timeout"), `service "catalog" unavailable: timeout`, ErrUnavailable, IsUnavailable},
		{"unavailable without reason", NewUnavailableError("redis", ""), `service "redis" unavailable`, ErrUnavailable, IsUnavailable},
	}

	kinds := []error{ErrNotFound, ErrConflict, ErrValidation, ErrForbidden, ErrUnavailable}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())

			wrapped := fmt.Errorf("handling request: %w", tt.err)
			assert.True(t, tt.is(wrapped))

			for _, kind := range kinds {
				assert.Equal(t, kind == tt.kind, errors.Is(wrapped, kind), "kind %v", kind)
			}
		})
	}
}

func TestValidationError_KeepsValue(t *testing.T) {
	err := fmt.Errorf("moving item: %w", NewValidationErrorWithValue("status", "unknown status", "lost"))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Field)
	assert.Equal(t, "lost", ve.Value)
}

func TestUnavailableError_As(t *testing.T) {
	err := fmt.Errorf("enriching: %w", NewUnavailableError("catalog", "circuit open"))

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "catalog", ue.Service)
	assert.False(t, IsNotFound(err))
}

func TestIsHelpers_Nil(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsValidation(nil))
	assert.False(t, IsUnavailable(nil))
}

func TestFieldErrors(t *testing.T) {
	var fe FieldErrors
	require.NoError(t, fe.Err())

	fe = FieldErrors{}
	fe.Add("rating", "must be between 1 and 5")
	fe.Add("book", "is required")
	fe.Add("rating", "ignored second message")

	err := fe.Err()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "validation failed: book: is required; rating: must be between 1 and 5", err.Error())

	var target FieldErrors
	require.ErrorAs(t, fmt.Errorf("creating review: %w", err), &target)
	assert.Len(t, target, 2)
}
