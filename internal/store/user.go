package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist or is soft-deleted,
	// unless IncludeDeleted is passed.
	GetByID(ctx context.Context, id uuid.UUID, opts ...FindOption) (*domain.User, error)

	// GetByEmail retrieves a live user by their email address.
	// Returns ErrUserNotFound if no live user has that email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByIDs returns the live users among ids, keyed by ID.
	// Missing IDs are simply absent from the map.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)

	// List returns all live users, newest first.
	List(ctx context.Context) ([]*domain.User, error)

	// Update modifies an existing user's profile fields and role.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrEmailExists if updating to an email that already exists.
	Update(ctx context.Context, user *domain.User) error

	// SoftDelete stamps the user's deleted_at and returns the tombstone.
	// Returns ErrUserNotFound if the user does not exist or is already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
