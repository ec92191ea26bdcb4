package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/policy"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// GroupRegistry is the connection index the subscription service manages.
// realtime.Hub implements it.
type GroupRegistry interface {
	Owner(connID string) (uuid.UUID, bool)
	Join(projectID uuid.UUID, connID string) error
	Leave(projectID uuid.UUID, connID string)
}

// SubscriptionService adds and removes realtime connections from project groups.
type SubscriptionService interface {
	// JoinProject subscribes connID to projectID's events. Only the user who
	// opened the connection may use it, and only for a project they own, are
	// assigned work in, or any project when admin.
	JoinProject(ctx context.Context, actor domain.Actor, connID string, projectID uuid.UUID) error

	// LeaveProject unsubscribes connID. Leaving a group the connection is not
	// in is a no-op.
	LeaveProject(ctx context.Context, actor domain.Actor, connID string, projectID uuid.UUID) error
}

type subscriptionService struct {
	registry GroupRegistry
	projects store.ProjectStore
	tasks    store.TaskStore
	logger   *slog.Logger
}

var _ SubscriptionService = (*subscriptionService)(nil)

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(
	registry GroupRegistry,
	projects store.ProjectStore,
	tasks store.TaskStore,
	logger *slog.Logger,
) (SubscriptionService, error) {
	if registry == nil {
		return nil, domain.NewValidationError("registry", "cannot be nil", domain.ErrValidation)
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
	return &subscriptionService{
		registry: registry,
		projects: projects,
		tasks:    tasks,
		logger:   logger.With(slog.String("component", "subscription_service")),
	}, nil
}

// JoinProject implements SubscriptionService.
func (s *subscriptionService) JoinProject(
	ctx context.Context,
	actor domain.Actor,
	connID string,
	projectID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkOwner(actor, connID); err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return wrap("subscription", "join", "failed to load project", err)
	}

	assigned := 0
	if !actor.IsAdmin() && project.OwnerID != actor.ID {
		actorID := actor.ID
		assigned, err = s.tasks.Count(ctx, store.TaskQuery{ProjectID: &project.ID, AssigneeID: &actorID})
		if err != nil {
			return wrap("subscription", "join", "failed to count assigned tasks", err)
		}
	}
	if err := policy.CanJoinProjectGroup(actor, project, assigned); err != nil {
		return err
	}

	if err := s.registry.Join(project.ID, connID); err != nil {
		if errors.Is(err, realtime.ErrUnknownConnection) {
			return ErrConnectionNotFound
		}
		return wrap("subscription", "join", "failed to join group", err)
	}

	log.Debug("connection joined project group",
		slog.String("connection_id", connID),
		slog.String("project_id", project.ID.String()))
	return nil
}

// LeaveProject implements SubscriptionService.
func (s *subscriptionService) LeaveProject(
	_ context.Context,
	actor domain.Actor,
	connID string,
	projectID uuid.UUID,
) error {
	if err := s.checkOwner(actor, connID); err != nil {
		return err
	}
	s.registry.Leave(projectID, connID)
	return nil
}

func (s *subscriptionService) checkOwner(actor domain.Actor, connID string) error {
	owner, ok := s.registry.Owner(connID)
	if !ok {
		return ErrConnectionNotFound
	}
	if owner != actor.ID {
		return domain.Forbidden("connection belongs to another user")
	}
	return nil
}
