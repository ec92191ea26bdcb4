package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/policy"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// CreateProjectInput holds the fields of a new project.
type CreateProjectInput struct {
	Name        string
	Description *string
	Color       *string
}

// UpdateProjectInput is a partial project update.
type UpdateProjectInput struct {
	Name        *string
	Description Optional[string]
	Color       Optional[string]
}

// ProjectService manages projects.
type ProjectService interface {
	CreateProject(ctx context.Context, actor domain.Actor, in CreateProjectInput) (*ProjectView, error)

	// ListProjects returns every live project for admins and the actor's own
	// projects otherwise, newest first.
	ListProjects(ctx context.Context, actor domain.Actor) ([]ProjectView, error)

	// GetProject returns the project with its tasks in board order.
	GetProject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*ProjectDetail, error)

	UpdateProject(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateProjectInput) (*ProjectView, error)

	DeleteProject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*DeletedProject, error)
}

type projectService struct {
	projects    store.ProjectStore
	tasks       store.TaskStore
	users       store.UserStore
	broadcaster Broadcaster
	views       projector
	logger      *slog.Logger
}

var _ ProjectService = (*projectService)(nil)

// NewProjectService creates a ProjectService. A nil broadcaster discards events.
func NewProjectService(
	projects store.ProjectStore,
	tasks store.TaskStore,
	users store.UserStore,
	broadcaster Broadcaster,
	logger *slog.Logger,
) (ProjectService, error) {
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &projectService{
		projects:    projects,
		tasks:       tasks,
		users:       users,
		broadcaster: broadcaster,
		views:       projector{users: users, projects: projects, tasks: tasks},
		logger:      logger.With(slog.String("component", "project_service")),
	}, nil
}

// CreateProject implements ProjectService.
func (s *projectService) CreateProject(
	ctx context.Context,
	actor domain.Actor,
	in CreateProjectInput,
) (*ProjectView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := domain.NewProject(actor.ID, in.Name, in.Description, in.Color)
	if err != nil {
		return nil, invalid("project", err)
	}

	if err := s.projects.Create(ctx, project); err != nil {
		log.Error("failed to create project",
			slog.String("error", err.Error()),
			slog.String("owner_id", actor.ID.String()))
		return nil, wrap("project", "create", "failed to save project", err)
	}

	view, err := s.views.projectView(ctx, project)
	if err != nil {
		return nil, wrap("project", "create", "failed to build project view", err)
	}
	s.broadcaster.Broadcast(ctx, project.ID, realtime.EventProjectUpdated, view)

	log.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.String("owner_id", actor.ID.String()))
	return &view, nil
}

// ListProjects implements ProjectService.
func (s *projectService) ListProjects(ctx context.Context, actor domain.Actor) ([]ProjectView, error) {
	var q store.ProjectQuery
	if !actor.IsAdmin() {
		owner := actor.ID
		q.OwnerID = &owner
	}

	projects, err := s.projects.Find(ctx, q)
	if err != nil {
		return nil, wrap("project", "list", "failed to find projects", err)
	}

	views, err := s.views.projectViews(ctx, projects)
	if err != nil {
		return nil, wrap("project", "list", "failed to build project views", err)
	}
	return views, nil
}

// GetProject implements ProjectService.
func (s *projectService) GetProject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*ProjectDetail, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("project", "get", "failed to load project", err)
	}
	if err := policy.CanAccessProject(actor, project); err != nil {
		return nil, err
	}

	projectID := project.ID
	tasks, err := s.tasks.Find(ctx, store.TaskQuery{ProjectID: &projectID})
	if err != nil {
		return nil, wrap("project", "get", "failed to load tasks", err)
	}

	view, err := s.views.projectView(ctx, project)
	if err != nil {
		return nil, wrap("project", "get", "failed to build project view", err)
	}
	taskViews, err := s.views.taskViews(ctx, tasks)
	if err != nil {
		return nil, wrap("project", "get", "failed to build task views", err)
	}

	return &ProjectDetail{ProjectView: view, Tasks: taskViews}, nil
}

// UpdateProject implements ProjectService.
func (s *projectService) UpdateProject(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	in UpdateProjectInput,
) (*ProjectView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("project", "update", "failed to load project", err)
	}
	if err := policy.CanMutateProject(actor, project); err != nil {
		return nil, err
	}

	if in.Name != nil {
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description.Set {
		project.Description = in.Description.Value
	}
	if in.Color.Set {
		project.Color = in.Color.Value
	}
	if err := project.Validate(); err != nil {
		return nil, invalid("project", err)
	}

	if err := s.projects.Update(ctx, project); err != nil {
		log.Error("failed to update project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return nil, wrap("project", "update", "failed to save project", err)
	}

	view, err := s.views.projectView(ctx, project)
	if err != nil {
		return nil, wrap("project", "update", "failed to build project view", err)
	}
	s.broadcaster.Broadcast(ctx, project.ID, realtime.EventProjectUpdated, view)
	return &view, nil
}

// DeleteProject implements ProjectService. The project's tasks stay in place
// and disappear from listings with it.
func (s *projectService) DeleteProject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*DeletedProject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("project", "delete", "failed to load project", err)
	}
	if err := policy.CanDeleteProject(actor, project); err != nil {
		return nil, err
	}

	deleted, err := s.projects.SoftDelete(ctx, project.ID)
	if err != nil {
		log.Error("failed to delete project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return nil, wrap("project", "delete", "failed to delete project", err)
	}

	view, err := s.views.projectView(ctx, deleted)
	if err != nil {
		return nil, wrap("project", "delete", "failed to build project view", err)
	}
	s.broadcaster.Broadcast(ctx, deleted.ID, realtime.EventProjectUpdated, view)

	log.Info("project deleted", slog.String("project_id", id.String()))
	result := &DeletedProject{ID: deleted.ID, Name: deleted.Name}
	if deleted.DeletedAt != nil {
		result.DeletedAt = *deleted.DeletedAt
	}
	return result, nil
}
