package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

var (
	// ErrAssigneeNotFound is returned when a task names an assignee that does
	// not exist or has been deleted. It belongs to the store.ErrNotFound family.
	ErrAssigneeNotFound = fmt.Errorf("%w: assignee", store.ErrNotFound)

	// ErrConnectionNotFound is returned when a realtime connection id is not
	// registered on this instance.
	ErrConnectionNotFound = fmt.Errorf("%w: connection", store.ErrNotFound)
)

// ServiceError carries the failing operation for unexpected errors. Expected
// conditions (not found, forbidden, validation) are returned as sentinels.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// passThrough reports whether err is an expected condition that should reach
// the caller unwrapped.
func passThrough(err error) bool {
	return store.IsNotFoundError(err) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrValidation) ||
		store.IsDuplicateError(err)
}

// wrap leaves expected conditions untouched and wraps everything else in a
// ServiceError.
func wrap(service, operation, message string, err error) error {
	if err == nil || passThrough(err) {
		return err
	}
	return NewServiceError(service, operation, message, err)
}

// invalid converts a domain validation failure into a ValidationError on field.
func invalid(field string, err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return domain.NewValidationError(field, err.Error(), err)
}
