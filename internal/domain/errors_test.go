package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("position", "must be non-negative", ErrNegativePosition)

	assert.Equal(t, "position must be non-negative", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrNegativePosition)
	assert.ErrorIs(t, fmt.Errorf("create task: %w", err), ErrValidation)

	var ve *ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ve))
	assert.Equal(t, "position", ve.Field)

	bare := NewValidationError("title", "is required", nil)
	assert.ErrorIs(t, bare, ErrValidation)
}

func TestForbidden(t *testing.T) {
	err := Forbidden("only the project owner can delete this task")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "only the project owner")
}
