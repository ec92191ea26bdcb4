package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const sampleProjectName = "Sample Project"

type seedUser struct {
	email    string
	name     string
	password string
	role     domain.Role
}

type seedTask struct {
	title       string
	description string
	status      domain.TaskStatus
	priority    domain.TaskPriority
	position    int
	assignee    string // seed user email, empty for unassigned
}

var seedUsers = []seedUser{
	{email: "admin@taskboard.local", name: "Admin User", password: "admin123", role: domain.RoleAdmin},
	{email: "user@taskboard.local", name: "Regular User", password: "user1234", role: domain.RoleUser},
}

var seedTasks = []seedTask{
	{
		title:       "Set up project infrastructure",
		description: "Create the repository, database schema and deployment pipeline",
		status:      domain.TaskStatusDone,
		priority:    domain.TaskPriorityHigh,
		position:    0,
		assignee:    "admin@taskboard.local",
	},
	{
		title:       "Implement authentication",
		description: "Add JWT based sign-in with refresh tokens",
		status:      domain.TaskStatusInProgress,
		priority:    domain.TaskPriorityHigh,
		position:    0,
		assignee:    "admin@taskboard.local",
	},
	{
		title:       "Create task management",
		description: "CRUD operations for tasks",
		status:      domain.TaskStatusTodo,
		priority:    domain.TaskPriorityMedium,
		position:    0,
		assignee:    "user@taskboard.local",
	},
	{
		title:       "Add real-time updates",
		description: "Stream task changes to project members",
		status:      domain.TaskStatusTodo,
		priority:    domain.TaskPriorityLow,
		position:    1,
	},
	{
		title:       "Design UI components",
		description: "Reusable components for the board",
		status:      domain.TaskStatusTodo,
		priority:    domain.TaskPriorityMedium,
		position:    2,
		assignee:    "user@taskboard.local",
	},
}

// seedData inserts sample users, a project owned by the admin and tasks in
// several buckets. Records that already exist are left untouched, so running
// it twice is harmless.
func seedData(ctx context.Context, s stores, hasher auth.PasswordHasher, logger *slog.Logger) error {
	users := make(map[string]*domain.User, len(seedUsers))
	for _, su := range seedUsers {
		u, err := ensureSeedUser(ctx, s.users, hasher, su)
		if err != nil {
			return err
		}
		users[su.email] = u
	}

	admin := users[seedUsers[0].email]
	project, created, err := ensureSampleProject(ctx, s.projects, admin.ID)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("sample project already present, skipping tasks",
			slog.String("project_id", project.ID.String()))
		return nil
	}

	for _, st := range seedTasks {
		task, err := domain.NewTask(project.ID, st.title, st.status, st.priority)
		if err != nil {
			return fmt.Errorf("invalid seed task %q: %w", st.title, err)
		}
		description := st.description
		task.Description = &description
		task.Position = st.position
		if st.assignee != "" {
			id := users[st.assignee].ID
			task.AssigneeID = &id
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create seed task %q: %w", st.title, err)
		}
	}

	logger.Info("database seeded",
		slog.Int("users", len(users)),
		slog.String("project_id", project.ID.String()),
		slog.Int("tasks", len(seedTasks)))
	return nil
}

func ensureSeedUser(
	ctx context.Context,
	users store.UserStore,
	hasher auth.PasswordHasher,
	su seedUser,
) (*domain.User, error) {
	existing, err := users.GetByEmail(ctx, su.email)
	if err == nil {
		return existing, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up seed user %s: %w", su.email, err)
	}

	hash, err := hasher.Hash(su.password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}
	u, err := domain.NewUser(su.email, su.name, hash)
	if err != nil {
		return nil, fmt.Errorf("invalid seed user %s: %w", su.email, err)
	}
	u.Role = su.role
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create seed user %s: %w", su.email, err)
	}
	return u, nil
}

func ensureSampleProject(
	ctx context.Context,
	projects store.ProjectStore,
	ownerID uuid.UUID,
) (*domain.Project, bool, error) {
	owned, err := projects.Find(ctx, store.ProjectQuery{OwnerID: &ownerID})
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up sample project: %w", err)
	}
	for _, p := range owned {
		if p.Name == sampleProjectName {
			return p, false, nil
		}
	}

	description := "A sample project to explore the board"
	color := "#6366f1"
	project, err := domain.NewProject(ownerID, sampleProjectName, &description, &color)
	if err != nil {
		return nil, false, fmt.Errorf("invalid sample project: %w", err)
	}
	if err := projects.Create(ctx, project); err != nil {
		return nil, false, fmt.Errorf("failed to create sample project: %w", err)
	}
	return project, true, nil
}
