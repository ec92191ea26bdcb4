package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// projector batch-loads the records referenced by a result set and builds
// its views with one lookup per related table.
type projector struct {
	users    store.UserStore
	projects store.ProjectStore
	tasks    store.TaskStore
}

func (p projector) taskViews(ctx context.Context, tasks []*domain.Task) ([]TaskView, error) {
	views := make([]TaskView, 0, len(tasks))
	if len(tasks) == 0 {
		return views, nil
	}

	var userIDs []uuid.UUID
	projectIDs := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		projectIDs = append(projectIDs, t.ProjectID)
		if t.AssigneeID != nil {
			userIDs = append(userIDs, *t.AssigneeID)
		}
	}

	users, err := p.users.GetByIDs(ctx, unique(userIDs))
	if err != nil {
		return nil, err
	}
	projects, err := p.projects.GetByIDs(ctx, unique(projectIDs))
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		var assignee *domain.User
		if t.AssigneeID != nil {
			assignee = users[*t.AssigneeID]
		}
		views = append(views, NewTaskView(t, assignee, projects[t.ProjectID]))
	}
	return views, nil
}

func (p projector) projectViews(ctx context.Context, projects []*domain.Project) ([]ProjectView, error) {
	views := make([]ProjectView, 0, len(projects))
	if len(projects) == 0 {
		return views, nil
	}

	ownerIDs := make([]uuid.UUID, 0, len(projects))
	projectIDs := make([]uuid.UUID, 0, len(projects))
	for _, pr := range projects {
		ownerIDs = append(ownerIDs, pr.OwnerID)
		projectIDs = append(projectIDs, pr.ID)
	}

	owners, err := p.users.GetByIDs(ctx, unique(ownerIDs))
	if err != nil {
		return nil, err
	}
	counts, err := p.tasks.CountByProjects(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	for _, pr := range projects {
		views = append(views, NewProjectView(pr, owners[pr.OwnerID], counts[pr.ID]))
	}
	return views, nil
}

func (p projector) projectView(ctx context.Context, project *domain.Project) (ProjectView, error) {
	views, err := p.projectViews(ctx, []*domain.Project{project})
	if err != nil {
		return ProjectView{}, err
	}
	return views[0], nil
}

func unique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
