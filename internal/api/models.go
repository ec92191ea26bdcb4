package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Name     string `json:"name"     validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the RFC 3339 time the access token expires.
	ExpiresAt string           `json:"expires_at"`
	User      service.UserView `json:"user"`
}

// CreateTaskRequest defines the payload for POST /tasks.
type CreateTaskRequest struct {
	ProjectID   uuid.UUID  `json:"project_id"  validate:"required"`
	Title       string     `json:"title"       validate:"required,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Status      string     `json:"status"      validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Position    *int       `json:"position"    validate:"omitempty,gte=0"`
}

// Validate implements the custom validation hook.
func (r CreateTaskRequest) Validate() error {
	if r.ProjectID == uuid.Nil {
		return domain.NewValidationError("project_id", "is required", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Title) == "" {
		return domain.NewValidationError("title", "cannot be blank", domain.ErrValidation)
	}
	return nil
}

// Input converts the request to service input.
func (r CreateTaskRequest) Input() service.CreateTaskInput {
	return service.CreateTaskInput{
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.TaskStatus(r.Status),
		Priority:    domain.TaskPriority(r.Priority),
		AssigneeID:  r.AssigneeID,
		DueDate:     r.DueDate,
		Position:    r.Position,
	}
}

// UpdateTaskRequest defines the payload for PATCH /tasks/{id}. Absent fields
// are left unchanged; description, assignee_id and due_date accept null.
type UpdateTaskRequest struct {
	Title       *string             `json:"title"    validate:"omitempty,max=200"`
	Description Nullable[string]    `json:"description"`
	Status      *string             `json:"status"   validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority    *string             `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeID  Nullable[uuid.UUID] `json:"assignee_id"`
	DueDate     Nullable[time.Time] `json:"due_date"`
	Position    *int                `json:"position" validate:"omitempty,gte=0"`
}

// Validate implements the custom validation hook.
func (r UpdateTaskRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return domain.NewValidationError("title", "cannot be blank", domain.ErrValidation)
	}
	if r.Description.Value != nil && len(*r.Description.Value) > 5000 {
		return domain.NewValidationError("description", "is too long", domain.ErrValidation)
	}
	return nil
}

// Input converts the request to service input.
func (r UpdateTaskRequest) Input() service.UpdateTaskInput {
	in := service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description.Optional(),
		AssigneeID:  r.AssigneeID.Optional(),
		DueDate:     r.DueDate.Optional(),
		Position:    r.Position,
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		in.Status = &s
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		in.Priority = &p
	}
	return in
}

// ReorderItem is one task of a reorder batch.
type ReorderItem struct {
	ID       uuid.UUID `json:"id"       validate:"required"`
	Position *int      `json:"position" validate:"required,gte=0"`
	Status   *string   `json:"status"   validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
}

// ReorderTasksRequest defines the payload for PATCH /tasks/projects/{projectId}/reorder.
type ReorderTasksRequest struct {
	Tasks []ReorderItem `json:"tasks" validate:"max=500,dive"`
}

// Validate implements the custom validation hook.
func (r ReorderTasksRequest) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(r.Tasks))
	for _, item := range r.Tasks {
		if item.ID == uuid.Nil {
			return domain.NewValidationError("tasks.id", "is required", domain.ErrValidation)
		}
		if _, dup := seen[item.ID]; dup {
			return domain.NewValidationError("tasks", "must not repeat a task", domain.ErrValidation)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// Moves converts the batch to store moves, preserving input order.
func (r ReorderTasksRequest) Moves() []store.PositionMove {
	moves := make([]store.PositionMove, 0, len(r.Tasks))
	for _, item := range r.Tasks {
		move := store.PositionMove{TaskID: item.ID, Position: *item.Position}
		if item.Status != nil {
			s := domain.TaskStatus(*item.Status)
			move.Status = &s
		}
		moves = append(moves, move)
	}
	return moves
}

// ListTasksQuery holds the query parameters of GET /tasks.
type ListTasksQuery struct {
	Status     string `validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority   string `validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeID string `validate:"omitempty,uuid"`
	ProjectID  string `validate:"omitempty,uuid"`
	Search     string `validate:"max=200"`
	Page       int    `validate:"gte=0"`
	Limit      int    `validate:"gte=0,lte=100"`
	SortBy     string `validate:"omitempty,oneof=title status priority position due_date created_at updated_at project assignee"`
	Order      string `validate:"omitempty,oneof=asc desc"`
}

// parseListTasksQuery reads the listing parameters from the URL.
func parseListTasksQuery(r *http.Request) (ListTasksQuery, error) {
	q := r.URL.Query()
	page, err := queryInt(r, "page")
	if err != nil {
		return ListTasksQuery{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return ListTasksQuery{}, err
	}
	return ListTasksQuery{
		Status:     strings.ToUpper(q.Get("status")),
		Priority:   strings.ToUpper(q.Get("priority")),
		AssigneeID: q.Get("assignee_id"),
		ProjectID:  q.Get("project_id"),
		Search:     strings.TrimSpace(q.Get("search")),
		Page:       page,
		Limit:      limit,
		SortBy:     q.Get("sort_by"),
		Order:      strings.ToLower(q.Get("order")),
	}, nil
}

// Input converts validated query parameters to service input.
func (q ListTasksQuery) Input() service.ListTasksInput {
	in := service.ListTasksInput{
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
		SortBy: store.TaskSortField(q.SortBy),
		Order:  store.SortOrder(q.Order),
	}
	if q.Status != "" {
		s := domain.TaskStatus(q.Status)
		in.Status = &s
	}
	if q.Priority != "" {
		p := domain.TaskPriority(q.Priority)
		in.Priority = &p
	}
	if id, err := uuid.Parse(q.AssigneeID); err == nil {
		in.AssigneeID = &id
	}
	if id, err := uuid.Parse(q.ProjectID); err == nil {
		in.ProjectID = &id
	}
	return in
}

// CreateProjectRequest defines the payload for POST /projects.
type CreateProjectRequest struct {
	Name        string  `json:"name"        validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Color       *string `json:"color"       validate:"omitempty,hexcolor"`
}

// Validate implements the custom validation hook.
func (r CreateProjectRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.NewValidationError("name", "cannot be blank", domain.ErrValidation)
	}
	return nil
}

// UpdateProjectRequest defines the payload for PATCH /projects/{id}.
type UpdateProjectRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=100"`
	Description Nullable[string] `json:"description"`
	Color       Nullable[string] `json:"color"`
}

// Validate implements the custom validation hook.
func (r UpdateProjectRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return domain.NewValidationError("name", "cannot be blank", domain.ErrValidation)
	}
	if r.Description.Value != nil && len(*r.Description.Value) > 2000 {
		return domain.NewValidationError("description", "is too long", domain.ErrValidation)
	}
	if r.Color.Value != nil {
		if err := shared.ValidateVar(*r.Color.Value, "hexcolor"); err != nil {
			return domain.NewValidationError("color", "must be a hex color", domain.ErrValidation)
		}
	}
	return nil
}

// UpdateUserRequest defines the payload for PATCH /users/{id}.
type UpdateUserRequest struct {
	Name      *string          `json:"name"  validate:"omitempty,max=100"`
	Email     *string          `json:"email" validate:"omitempty,email,max=254"`
	AvatarURL Nullable[string] `json:"avatar_url"`
	Role      *string          `json:"role"  validate:"omitempty,oneof=ADMIN USER"`
}

// Validate implements the custom validation hook.
func (r UpdateUserRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return domain.NewValidationError("name", "cannot be blank", domain.ErrValidation)
	}
	if r.AvatarURL.Value != nil {
		if err := shared.ValidateVar(*r.AvatarURL.Value, "url"); err != nil {
			return domain.NewValidationError("avatar_url", "must be a URL", domain.ErrValidation)
		}
	}
	return nil
}

// Input converts the request to service input.
func (r UpdateUserRequest) Input() service.UpdateUserInput {
	in := service.UpdateUserInput{
		Name:      r.Name,
		Email:     r.Email,
		AvatarURL: r.AvatarURL.Optional(),
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}
