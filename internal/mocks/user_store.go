package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MockUserStore implements store.UserStore over a MemoryDB.
type MockUserStore struct {
	db *MemoryDB

	// Function fields override the in-memory behavior when set
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID, opts ...store.FindOption) (*domain.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
}

// NewMockUserStore creates a user store over a fresh MemoryDB.
func NewMockUserStore() *MockUserStore {
	users, _, _ := NewMemoryDB().Stores()
	return users
}

var _ store.UserStore = (*MockUserStore)(nil)

// WithTx implements store.UserStore
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}

func (m *MockUserStore) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range m.db.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

// Create implements store.UserStore
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if m.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	m.db.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID implements store.UserStore
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID, opts ...store.FindOption) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id, opts...)
	}

	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	u, ok := m.db.users[id]
	if !ok || (u.IsDeleted() && !store.ApplyFindOptions(opts...).IncludeDeleted) {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// GetByEmail implements store.UserStore
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	for _, u := range m.db.users {
		if u.Email == email && !u.IsDeleted() {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByIDs implements store.UserStore
func (m *MockUserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	out := make(map[uuid.UUID]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := m.db.users[id]; ok && !u.IsDeleted() {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

// List implements store.UserStore
func (m *MockUserStore) List(ctx context.Context) ([]*domain.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	users := []*domain.User{}
	for _, u := range m.db.users {
		if !u.IsDeleted() {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	return users, nil
}

// Update implements store.UserStore
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	existing, ok := m.db.users[user.ID]
	if !ok || existing.IsDeleted() {
		return store.ErrUserNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	user.UpdatedAt = time.Now().UTC()
	m.db.users[user.ID] = cloneUser(user)
	return nil
}

// SoftDelete implements store.UserStore
func (m *MockUserStore) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	u, ok := m.db.users[id]
	if !ok || u.IsDeleted() {
		return nil, store.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	u.UpdatedAt = now
	return cloneUser(u), nil
}
