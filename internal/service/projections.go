package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// UserSummary is the public projection of a user embedded in other views.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

// ProjectSummary is the projection of a project embedded in task views.
type ProjectSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color *string   `json:"color,omitempty"`
}

// TaskView is a task with its assignee and project projections.
type TaskView struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.TaskPriority `json:"priority"`
	Position    int                 `json:"position"`
	ProjectID   uuid.UUID           `json:"project_id"`
	AssigneeID  *uuid.UUID          `json:"assignee_id,omitempty"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Assignee    *UserSummary        `json:"assignee"`
	Project     *ProjectSummary     `json:"project,omitempty"`
}

// ProjectView is a project with its owner and live task count.
type ProjectView struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Color       *string      `json:"color,omitempty"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Owner       *UserSummary `json:"owner"`
	TaskCount   int          `json:"task_count"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// ProjectDetail is a project together with its tasks in board order.
type ProjectDetail struct {
	ProjectView
	Tasks []TaskView `json:"tasks"`
}

// UserView is the public projection of a user account.
type UserView struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	AvatarURL *string     `json:"avatar_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// UserDetail is a user with the tasks assigned to them and the projects they own.
type UserDetail struct {
	UserView
	AssignedTasks []TaskView    `json:"assigned_tasks"`
	OwnedProjects []ProjectView `json:"owned_projects"`
}

// DeletedTask is the response to a task deletion.
type DeletedTask struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	DeletedAt time.Time `json:"deleted_at"`
}

// DeletedProject is the response to a project deletion.
type DeletedProject struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	DeletedAt time.Time `json:"deleted_at"`
}

// DeletedUser is the response to a user deletion.
type DeletedUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	DeletedAt time.Time `json:"deleted_at"`
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// TaskPage is one page of tasks.
type TaskPage struct {
	Items []TaskView `json:"items"`
	Meta  PageMeta   `json:"meta"`
}

// NewUserSummary projects u; a nil user yields nil.
func NewUserSummary(u *domain.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}

// NewProjectSummary projects p; a nil project yields nil.
func NewProjectSummary(p *domain.Project) *ProjectSummary {
	if p == nil {
		return nil
	}
	return &ProjectSummary{ID: p.ID, Name: p.Name, Color: p.Color}
}

// NewTaskView projects t with the given related records, either of which may be nil.
func NewTaskView(t *domain.Task, assignee *domain.User, project *domain.Project) TaskView {
	return TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Position:    t.Position,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Assignee:    NewUserSummary(assignee),
		Project:     NewProjectSummary(project),
	}
}

// NewProjectView projects p with its owner and live task count.
func NewProjectView(p *domain.Project, owner *domain.User, taskCount int) ProjectView {
	return ProjectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		OwnerID:     p.OwnerID,
		Owner:       NewUserSummary(owner),
		TaskCount:   taskCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		DeletedAt:   p.DeletedAt,
	}
}

// NewUserView projects u without its credentials.
func NewUserView(u *domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newPageMeta(total, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
