package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ProjectQuery filters project listings. Results are always newest first.
type ProjectQuery struct {
	// OwnerID restricts results to projects owned by this user. Nil means all.
	OwnerID *uuid.UUID
}

// ProjectStore defines the interface for project data persistence.
type ProjectStore interface {
	// Create saves a new project.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by ID.
	// Returns ErrProjectNotFound if it does not exist or is soft-deleted,
	// unless IncludeDeleted is passed.
	GetByID(ctx context.Context, id uuid.UUID, opts ...FindOption) (*domain.Project, error)

	// GetByIDs returns the live projects among ids, keyed by ID.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Project, error)

	// Find lists live projects matching q, newest first.
	Find(ctx context.Context, q ProjectQuery) ([]*domain.Project, error)

	// Update persists name, description and color.
	// Returns ErrProjectNotFound if the project is missing or deleted.
	Update(ctx context.Context, project *domain.Project) error

	// SoftDelete stamps the project's deleted_at and returns the tombstone.
	// Returns ErrProjectNotFound if it does not exist or is already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// WithTx returns a new ProjectStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
