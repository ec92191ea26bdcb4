package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskSortField names a column tasks can be sorted by.
type TaskSortField string

const (
	TaskSortTitle     TaskSortField = "title"
	TaskSortStatus    TaskSortField = "status"
	TaskSortPriority  TaskSortField = "priority"
	TaskSortPosition  TaskSortField = "position"
	TaskSortDueDate   TaskSortField = "due_date"
	TaskSortCreatedAt TaskSortField = "created_at"
	TaskSortUpdatedAt TaskSortField = "updated_at"
	TaskSortProject   TaskSortField = "project"
	TaskSortAssignee  TaskSortField = "assignee"
)

// IsValid reports whether f is a supported sort field.
func (f TaskSortField) IsValid() bool {
	switch f {
	case TaskSortTitle, TaskSortStatus, TaskSortPriority, TaskSortPosition,
		TaskSortDueDate, TaskSortCreatedAt, TaskSortUpdatedAt,
		TaskSortProject, TaskSortAssignee:
		return true
	}
	return false
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TaskQuery filters, sorts and pages task listings. Soft-deleted tasks and
// tasks of soft-deleted projects are never returned.
type TaskQuery struct {
	Status     *domain.TaskStatus
	Priority   *domain.TaskPriority
	AssigneeID *uuid.UUID
	ProjectID  *uuid.UUID

	// Search matches title or description, case-insensitively.
	Search string

	// VisibleTo restricts results to tasks in projects owned by this user or
	// assigned to them. Nil means unrestricted (admin).
	VisibleTo *uuid.UUID

	// SortBy empty means board order: status, position, created_at desc, id.
	SortBy TaskSortField
	Order  SortOrder

	Offset int
	// Limit of zero means no limit.
	Limit int
}

// PositionMove is one entry of a bulk reorder.
type PositionMove struct {
	TaskID   uuid.UUID
	Position int
	// Status, when set, moves the task into that bucket.
	Status *domain.TaskStatus
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrInvalidEntity if the project or assignee reference is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if it does not exist, is soft-deleted or belongs
	// to a soft-deleted project, unless IncludeDeleted is passed.
	GetByID(ctx context.Context, id uuid.UUID, opts ...FindOption) (*domain.Task, error)

	// Find lists tasks matching q.
	Find(ctx context.Context, q TaskQuery) ([]*domain.Task, error)

	// Count returns the number of tasks matching q, ignoring paging and sort.
	Count(ctx context.Context, q TaskQuery) (int, error)

	// CountByProjects returns live task counts keyed by project ID.
	CountByProjects(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID]int, error)

	// Update persists every mutable field of task.
	// Returns ErrTaskNotFound if the task is missing or deleted.
	Update(ctx context.Context, task *domain.Task) error

	// SoftDelete stamps the task's deleted_at and returns the tombstone.
	SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// MaxPosition returns the highest position among live tasks in the
	// (projectID, status) bucket. found is false when the bucket is empty.
	MaxPosition(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (max int, found bool, err error)

	// UpdatePositions applies moves atomically. Every moved task must be a live
	// task of projectID; otherwise nothing is changed and an error wrapping
	// ErrTaskNotFound is returned. Updated tasks are returned in input order.
	UpdatePositions(ctx context.Context, projectID uuid.UUID, moves []PositionMove) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
