package service

import (
	"errors"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServiceError("task", "create", "failed to save task", cause)

	assert.Equal(t, "task service create failed: failed to save task: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "project service list failed: boom", NewServiceError("project", "list", "boom", nil).Error())
}

func TestWrap_PassesExpectedConditionsThrough(t *testing.T) {
	for _, err := range []error{
		store.ErrTaskNotFound,
		ErrAssigneeNotFound,
		domain.Forbidden("no"),
		domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyTaskTitle),
		store.ErrEmailExists,
	} {
		assert.Equal(t, err, wrap("task", "op", "msg", err), err.Error())
	}

	assert.Nil(t, wrap("task", "op", "msg", nil))

	var svcErr *ServiceError
	assert.ErrorAs(t, wrap("task", "op", "msg", errors.New("disk full")), &svcErr)
}

func TestInvalid(t *testing.T) {
	err := invalid("task", domain.ErrEmptyTaskTitle)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
}
