package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MockProjectStore implements store.ProjectStore over a MemoryDB.
type MockProjectStore struct {
	db *MemoryDB

	GetByIDFn func(ctx context.Context, id uuid.UUID, opts ...store.FindOption) (*domain.Project, error)
	UpdateFn  func(ctx context.Context, project *domain.Project) error
}

var _ store.ProjectStore = (*MockProjectStore)(nil)

// WithTx implements store.ProjectStore
func (m *MockProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return m
}

// Create implements store.ProjectStore
func (m *MockProjectStore) Create(ctx context.Context, project *domain.Project) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.users[project.OwnerID]; !ok {
		return fmt.Errorf("%w: owner %s not found", store.ErrInvalidEntity, project.OwnerID)
	}
	m.db.projects[project.ID] = cloneProject(project)
	return nil
}

// GetByID implements store.ProjectStore
func (m *MockProjectStore) GetByID(ctx context.Context, id uuid.UUID, opts ...store.FindOption) (*domain.Project, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id, opts...)
	}

	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	p, ok := m.db.projects[id]
	if !ok || (p.IsDeleted() && !store.ApplyFindOptions(opts...).IncludeDeleted) {
		return nil, store.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

// GetByIDs implements store.ProjectStore
func (m *MockProjectStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Project, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	out := make(map[uuid.UUID]*domain.Project, len(ids))
	for _, id := range ids {
		if p, ok := m.db.projects[id]; ok && !p.IsDeleted() {
			out[id] = cloneProject(p)
		}
	}
	return out, nil
}

// Find implements store.ProjectStore
func (m *MockProjectStore) Find(ctx context.Context, q store.ProjectQuery) ([]*domain.Project, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	projects := []*domain.Project{}
	for _, p := range m.db.projects {
		if p.IsDeleted() || (q.OwnerID != nil && p.OwnerID != *q.OwnerID) {
			continue
		}
		projects = append(projects, cloneProject(p))
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID.String() < projects[j].ID.String()
	})
	return projects, nil
}

// Update implements store.ProjectStore
func (m *MockProjectStore) Update(ctx context.Context, project *domain.Project) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, project)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	existing, ok := m.db.projects[project.ID]
	if !ok || existing.IsDeleted() {
		return store.ErrProjectNotFound
	}
	project.UpdatedAt = time.Now().UTC()
	m.db.projects[project.ID] = cloneProject(project)
	return nil
}

// SoftDelete implements store.ProjectStore
func (m *MockProjectStore) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	p, ok := m.db.projects[id]
	if !ok || p.IsDeleted() {
		return nil, store.ErrProjectNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	p.UpdatedAt = now
	return cloneProject(p), nil
}
