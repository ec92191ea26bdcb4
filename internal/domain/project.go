package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project validation errors
var (
	ErrEmptyProjectID      = errors.New("project ID cannot be empty")
	ErrEmptyProjectName    = errors.New("project name cannot be empty")
	ErrEmptyProjectOwnerID = errors.New("project owner ID cannot be empty")
	ErrInvalidProjectColor = errors.New("project color must be a hex color")
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Project groups tasks and is owned by exactly one user.
// OwnerID never changes after creation.
type Project struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Color       *string    `json:"color,omitempty"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// NewProject creates a project owned by ownerID.
func NewProject(ownerID uuid.UUID, name string, description, color *string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Color:       color,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks if the Project has valid data.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProjectID
	}
	if p.Name == "" {
		return ErrEmptyProjectName
	}
	if p.OwnerID == uuid.Nil {
		return ErrEmptyProjectOwnerID
	}
	if p.Color != nil && !hexColorPattern.MatchString(*p.Color) {
		return ErrInvalidProjectColor
	}
	return nil
}

// IsDeleted reports whether the project has been tombstoned.
func (p *Project) IsDeleted() bool {
	return p.DeletedAt != nil
}
