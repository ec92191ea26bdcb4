package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the bucket a task lives in. Positions are scoped per
// (project, status).
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusInReview   TaskStatus = "IN_REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// DefaultTaskStatus is used when a task is created without a status.
const DefaultTaskStatus = TaskStatusTodo

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority ranks tasks independently of their position.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// DefaultTaskPriority is used when a task is created without a priority.
const DefaultTaskPriority = TaskPriorityMedium

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task validation errors
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle     = errors.New("task title cannot be empty")
	ErrEmptyTaskProjectID = errors.New("task project ID cannot be empty")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrNegativePosition   = errors.New("task position cannot be negative")
)

// Task is a unit of work inside a project.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Position    int          `json:"position"`
	ProjectID   uuid.UUID    `json:"project_id"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// NewTask creates a task in projectID. Empty status and priority take their
// defaults; the position is assigned by the caller.
func NewTask(projectID uuid.UUID, title string, status TaskStatus, priority TaskPriority) (*Task, error) {
	if status == "" {
		status = DefaultTaskStatus
	}
	if priority == "" {
		priority = DefaultTaskPriority
	}

	now := time.Now().UTC()
	t := &Task{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Status:    status,
		Priority:  priority,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if t.ProjectID == uuid.Nil {
		return ErrEmptyTaskProjectID
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if t.Position < 0 {
		return ErrNegativePosition
	}
	return nil
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// IsDeleted reports whether the task has been tombstoned.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// Rank gives the board order of a status: TODO first, DONE last.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusTodo:
		return 0
	case TaskStatusInProgress:
		return 1
	case TaskStatusInReview:
		return 2
	case TaskStatusDone:
		return 3
	}
	return 4
}

// Rank orders priorities from LOW to URGENT.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityLow:
		return 0
	case TaskPriorityMedium:
		return 1
	case TaskPriorityHigh:
		return 2
	case TaskPriorityUrgent:
		return 3
	}
	return 4
}

// BoardLess reports whether a sorts before b in board order:
// status, then position, then newest first, then id.
func BoardLess(a, b *Task) bool {
	if a.Status != b.Status {
		return a.Status.Rank() < b.Status.Rank()
	}
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
