package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/policy"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UpdateUserInput is a partial user update. Role changes are admin-only.
type UpdateUserInput struct {
	Name      *string
	Email     *string
	AvatarURL Optional[string]
	Role      *domain.Role
}

// UserService provides user account operations.
type UserService interface {
	// GetUser retrieves a live user by ID without policy checks. It backs
	// authentication and the current-user endpoint.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ListUsers returns every live user. Admin only.
	ListUsers(ctx context.Context, actor domain.Actor) ([]UserView, error)

	// GetUserDetail returns a user with their assigned tasks and owned projects.
	GetUserDetail(ctx context.Context, actor domain.Actor, id uuid.UUID) (*UserDetail, error)

	// UpdateUser applies a partial update to the actor's own account, or to
	// any account for admins.
	UpdateUser(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateUserInput) (*UserView, error)

	// DeleteUser soft-deletes an account. Admins cannot delete themselves.
	DeleteUser(ctx context.Context, actor domain.Actor, id uuid.UUID) (*DeletedUser, error)
}

type userService struct {
	users    store.UserStore
	projects store.ProjectStore
	tasks    store.TaskStore
	views    projector
	logger   *slog.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a UserService.
func NewUserService(
	users store.UserStore,
	projects store.ProjectStore,
	tasks store.TaskStore,
	logger *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userService{
		users:    users,
		projects: projects,
		tasks:    tasks,
		views:    projector{users: users, projects: projects, tasks: tasks},
		logger:   logger.With(slog.String("component", "user_service")),
	}, nil
}

// GetUser implements UserService.
func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, wrap("user", "get", "failed to retrieve user", err)
	}
	return user, nil
}

// ListUsers implements UserService.
func (s *userService) ListUsers(ctx context.Context, actor domain.Actor) ([]UserView, error) {
	if err := policy.CanListUsers(actor); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, wrap("user", "list", "failed to list users", err)
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return views, nil
}

// GetUserDetail implements UserService.
func (s *userService) GetUserDetail(ctx context.Context, actor domain.Actor, id uuid.UUID) (*UserDetail, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("user", "get", "failed to retrieve user", err)
	}

	userID := user.ID
	tasks, err := s.tasks.Find(ctx, store.TaskQuery{AssigneeID: &userID})
	if err != nil {
		return nil, wrap("user", "get", "failed to load assigned tasks", err)
	}
	projects, err := s.projects.Find(ctx, store.ProjectQuery{OwnerID: &userID})
	if err != nil {
		return nil, wrap("user", "get", "failed to load owned projects", err)
	}

	taskViews, err := s.views.taskViews(ctx, tasks)
	if err != nil {
		return nil, wrap("user", "get", "failed to build task views", err)
	}
	projectViews, err := s.views.projectViews(ctx, projects)
	if err != nil {
		return nil, wrap("user", "get", "failed to build project views", err)
	}

	return &UserDetail{
		UserView:      NewUserView(user),
		AssignedTasks: taskViews,
		OwnedProjects: projectViews,
	}, nil
}

// UpdateUser implements UserService.
func (s *userService) UpdateUser(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	in UpdateUserInput,
) (*UserView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	changesRole := in.Role != nil
	if err := policy.CanMutateUser(actor, id, changesRole); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("user", "update", "failed to retrieve user", err)
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.AvatarURL.Set {
		user.AvatarURL = in.AvatarURL.Value
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if err := user.Validate(); err != nil {
		return nil, invalid("user", err)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if !store.IsDuplicateError(err) {
			log.Error("failed to update user",
				slog.String("error", err.Error()),
				slog.String("user_id", id.String()))
		}
		return nil, wrap("user", "update", "failed to save user", err)
	}

	log.Info("user updated",
		slog.String("user_id", id.String()),
		slog.Bool("role_changed", changesRole))
	view := NewUserView(user)
	return &view, nil
}

// DeleteUser implements UserService.
func (s *userService) DeleteUser(ctx context.Context, actor domain.Actor, id uuid.UUID) (*DeletedUser, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := policy.CanDeleteUser(actor, id); err != nil {
		return nil, err
	}

	deleted, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return nil, wrap("user", "delete", "failed to delete user", err)
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	result := &DeletedUser{ID: deleted.ID, Name: deleted.Name}
	if deleted.DeletedAt != nil {
		result.DeletedAt = *deleted.DeletedAt
	}
	return result, nil
}
