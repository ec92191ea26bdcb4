package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/ordering"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/policy"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const (
	// DefaultPageLimit is the page size used when a listing does not name one.
	DefaultPageLimit = 20

	// MaxPageLimit caps the page size of any listing.
	MaxPageLimit = 100
)

// CreateTaskInput holds the fields of a new task. Empty Status and Priority
// take their defaults; a nil Position appends the task to its bucket.
type CreateTaskInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
	Position    *int
}

// UpdateTaskInput is a partial update. Nil pointers leave fields unchanged;
// Optional fields may also be cleared.
type UpdateTaskInput struct {
	Title       *string
	Description Optional[string]
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	AssigneeID  Optional[uuid.UUID]
	DueDate     Optional[time.Time]
	Position    *int
}

// ListTasksInput filters, sorts and pages a task listing. Zero values mean
// "no filter"; an empty SortBy selects board order.
type ListTasksInput struct {
	Status     *domain.TaskStatus
	Priority   *domain.TaskPriority
	AssigneeID *uuid.UUID
	ProjectID  *uuid.UUID
	Search     string
	Page       int
	Limit      int
	SortBy     store.TaskSortField
	Order      store.SortOrder
}

// TaskService manages tasks on project boards.
type TaskService interface {
	// CreateTask adds a task to a project the actor owns (or any project for admins).
	CreateTask(ctx context.Context, actor domain.Actor, in CreateTaskInput) (*TaskView, error)

	// ListTasks returns one page of the live tasks visible to the actor.
	ListTasks(ctx context.Context, actor domain.Actor, in ListTasksInput) (*TaskPage, error)

	// GetTask returns a task visible to the actor. A task that exists but is
	// not visible yields domain.ErrForbidden rather than a not-found error.
	GetTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*TaskView, error)

	// UpdateTask applies a partial update. Changing status without a position
	// moves the task to the end of the target bucket.
	UpdateTask(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateTaskInput) (*TaskView, error)

	// DeleteTask soft-deletes a task.
	DeleteTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*DeletedTask, error)

	// ReorderTasks atomically rewrites positions (and optionally statuses) of
	// tasks in one project and returns them in input order.
	ReorderTasks(ctx context.Context, actor domain.Actor, projectID uuid.UUID, moves []store.PositionMove) ([]TaskView, error)
}

type taskService struct {
	tasks       store.TaskStore
	projects    store.ProjectStore
	users       store.UserStore
	engine      *ordering.Engine
	broadcaster Broadcaster
	views       projector
	logger      *slog.Logger
}

var _ TaskService = (*taskService)(nil)

// NewTaskService creates a TaskService. A nil broadcaster discards events.
func NewTaskService(
	tasks store.TaskStore,
	projects store.ProjectStore,
	users store.UserStore,
	engine *ordering.Engine,
	broadcaster Broadcaster,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if engine == nil {
		return nil, domain.NewValidationError("engine", "cannot be nil", domain.ErrValidation)
	}
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskService{
		tasks:       tasks,
		projects:    projects,
		users:       users,
		engine:      engine,
		broadcaster: broadcaster,
		views:       projector{users: users, projects: projects, tasks: tasks},
		logger:      logger.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask implements TaskService.
func (s *taskService) CreateTask(ctx context.Context, actor domain.Actor, in CreateTaskInput) (*TaskView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, wrap("task", "create", "failed to load project", err)
	}
	if err := policy.CanAccessProject(actor, project); err != nil {
		log.Debug("task creation denied",
			slog.String("actor_id", actor.ID.String()),
			slog.String("project_id", project.ID.String()))
		return nil, err
	}

	assignee, err := s.loadAssignee(ctx, in.AssigneeID)
	if err != nil {
		return nil, wrap("task", "create", "failed to load assignee", err)
	}

	task, err := domain.NewTask(project.ID, in.Title, in.Status, in.Priority)
	if err != nil {
		return nil, invalid("task", err)
	}
	task.Description = in.Description
	task.AssigneeID = in.AssigneeID
	task.DueDate = in.DueDate

	task.Position, err = s.engine.ResolvePosition(ctx, project.ID, task.Status, in.Position)
	if err != nil {
		return nil, wrap("task", "create", "failed to resolve position", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return nil, wrap("task", "create", "failed to save task", err)
	}

	view := NewTaskView(task, assignee, project)
	s.broadcaster.Broadcast(ctx, project.ID, realtime.EventTaskCreated, view)

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", project.ID.String()),
		slog.Int("position", task.Position))
	return &view, nil
}

// ListTasks implements TaskService.
func (s *taskService) ListTasks(ctx context.Context, actor domain.Actor, in ListTasksInput) (*TaskPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)

	if in.Status != nil && !in.Status.IsValid() {
		return nil, domain.NewValidationError("status", "is not a valid status", domain.ErrInvalidTaskStatus)
	}
	if in.Priority != nil && !in.Priority.IsValid() {
		return nil, domain.NewValidationError("priority", "is not a valid priority", domain.ErrInvalidPriority)
	}
	if in.SortBy != "" && !in.SortBy.IsValid() {
		return nil, domain.NewValidationError("sort_by", "is not a sortable field", domain.ErrValidation)
	}
	order := in.Order
	switch order {
	case store.SortAsc, store.SortDesc:
	case "":
		order = store.SortDesc
	default:
		return nil, domain.NewValidationError("order", "must be asc or desc", domain.ErrValidation)
	}

	q := store.TaskQuery{
		Status:     in.Status,
		Priority:   in.Priority,
		AssigneeID: in.AssigneeID,
		ProjectID:  in.ProjectID,
		Search:     strings.TrimSpace(in.Search),
		SortBy:     in.SortBy,
		Order:      order,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if !actor.IsAdmin() {
		visible := actor.ID
		q.VisibleTo = &visible
	}

	tasks, err := s.tasks.Find(ctx, q)
	if err != nil {
		return nil, wrap("task", "list", "failed to find tasks", err)
	}
	total, err := s.tasks.Count(ctx, q)
	if err != nil {
		return nil, wrap("task", "list", "failed to count tasks", err)
	}

	items, err := s.views.taskViews(ctx, tasks)
	if err != nil {
		return nil, wrap("task", "list", "failed to build task views", err)
	}

	return &TaskPage{Items: items, Meta: newPageMeta(total, page, limit)}, nil
}

// GetTask implements TaskService.
func (s *taskService) GetTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*TaskView, error) {
	task, project, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, wrap("task", "get", "failed to load task", err)
	}
	if err := policy.CanAccessTask(actor, task, project.OwnerID); err != nil {
		return nil, err
	}

	assignee, err := s.loadAssignee(ctx, task.AssigneeID)
	if err != nil && !store.IsNotFoundError(err) {
		return nil, wrap("task", "get", "failed to load assignee", err)
	}

	view := NewTaskView(task, assignee, project)
	return &view, nil
}

// UpdateTask implements TaskService.
func (s *taskService) UpdateTask(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	in UpdateTaskInput,
) (*TaskView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, project, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, wrap("task", "update", "failed to load task", err)
	}
	if err := policy.CanMutateTask(actor, task, project.OwnerID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyTaskTitle)
		}
		task.Title = title
	}
	if in.Description.Set {
		task.Description = in.Description.Value
	}
	if in.Priority != nil {
		if !in.Priority.IsValid() {
			return nil, domain.NewValidationError("priority", "is not a valid priority", domain.ErrInvalidPriority)
		}
		task.Priority = *in.Priority
	}
	if in.DueDate.Set {
		task.DueDate = in.DueDate.Value
	}

	if in.AssigneeID.Set {
		task.AssigneeID = in.AssigneeID.Value
	}
	assignee, err := s.loadAssignee(ctx, task.AssigneeID)
	if err != nil {
		if !in.AssigneeID.Set && store.IsNotFoundError(err) {
			// The existing assignee was deleted; keep the reference as is.
			assignee = nil
		} else {
			return nil, wrap("task", "update", "failed to load assignee", err)
		}
	}

	statusChanged := false
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, domain.NewValidationError("status", "is not a valid status", domain.ErrInvalidTaskStatus)
		}
		statusChanged = *in.Status != task.Status
		task.Status = *in.Status
	}
	if in.Position != nil || statusChanged {
		task.Position, err = s.engine.ResolvePosition(ctx, task.ProjectID, task.Status, in.Position)
		if err != nil {
			return nil, wrap("task", "update", "failed to resolve position", err)
		}
	}

	task.UpdatedAt = time.Now().UTC()
	if err := task.Validate(); err != nil {
		return nil, invalid("task", err)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, wrap("task", "update", "failed to save task", err)
	}

	view := NewTaskView(task, assignee, project)
	s.broadcaster.Broadcast(ctx, project.ID, realtime.EventTaskUpdated, view)

	log.Debug("task updated",
		slog.String("task_id", id.String()),
		slog.Bool("status_changed", statusChanged))
	return &view, nil
}

// DeleteTask implements TaskService.
func (s *taskService) DeleteTask(ctx context.Context, actor domain.Actor, id uuid.UUID) (*DeletedTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, project, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, wrap("task", "delete", "failed to load task", err)
	}
	if err := policy.CanDeleteTask(actor, project.OwnerID); err != nil {
		return nil, err
	}

	deleted, err := s.tasks.SoftDelete(ctx, task.ID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, wrap("task", "delete", "failed to delete task", err)
	}

	s.broadcaster.Broadcast(ctx, project.ID, realtime.EventTaskDeleted, realtime.TaskDeleted{ID: deleted.ID})

	log.Info("task deleted", slog.String("task_id", id.String()))
	result := &DeletedTask{ID: deleted.ID, Title: deleted.Title}
	if deleted.DeletedAt != nil {
		result.DeletedAt = *deleted.DeletedAt
	}
	return result, nil
}

// ReorderTasks implements TaskService.
func (s *taskService) ReorderTasks(
	ctx context.Context,
	actor domain.Actor,
	projectID uuid.UUID,
	moves []store.PositionMove,
) ([]TaskView, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, wrap("task", "reorder", "failed to load project", err)
	}
	if err := policy.CanReorderProject(actor, project); err != nil {
		return nil, err
	}

	updated, err := s.engine.Reorder(ctx, project.ID, moves)
	if err != nil {
		return nil, wrap("task", "reorder", "failed to reorder tasks", err)
	}

	views, err := s.views.taskViews(ctx, updated)
	if err != nil {
		return nil, wrap("task", "reorder", "failed to build task views", err)
	}

	s.broadcaster.Broadcast(ctx, project.ID, realtime.EventTasksReordered, views)
	return views, nil
}

// loadTask fetches a live task and its live project. A task whose project has
// been deleted is reported as not found.
func (s *taskService) loadTask(ctx context.Context, id uuid.UUID) (*domain.Task, *domain.Project, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
		}
		return nil, nil, err
	}
	return task, project, nil
}

// loadAssignee returns the user behind id, nil for a nil id, or
// ErrAssigneeNotFound.
func (s *taskService) loadAssignee(ctx context.Context, id *uuid.UUID) (*domain.User, error) {
	if id == nil {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, *id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrAssigneeNotFound
		}
		return nil, err
	}
	return user, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
