package mocks

import (
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// MemoryDB is an in-memory record store shared by MockUserStore,
// MockProjectStore and MockTaskStore so that cross-entity facts (a task's
// project being deleted, a project's owner) behave like the real database.
// Entities are copied on the way in and out.
type MemoryDB struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*domain.User
	projects map[uuid.UUID]*domain.Project
	tasks    map[uuid.UUID]*domain.Task
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:    make(map[uuid.UUID]*domain.User),
		projects: make(map[uuid.UUID]*domain.Project),
		tasks:    make(map[uuid.UUID]*domain.Task),
	}
}

// Stores returns store implementations backed by db.
func (db *MemoryDB) Stores() (*MockUserStore, *MockProjectStore, *MockTaskStore) {
	return &MockUserStore{db: db}, &MockProjectStore{db: db}, &MockTaskStore{db: db}
}

// PutUser inserts or replaces u without validation.
func (db *MemoryDB) PutUser(u *domain.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = cloneUser(u)
}

// PutProject inserts or replaces p without validation.
func (db *MemoryDB) PutProject(p *domain.Project) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.projects[p.ID] = cloneProject(p)
}

// PutTask inserts or replaces t without validation.
func (db *MemoryDB) PutTask(t *domain.Task) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tasks[t.ID] = cloneTask(t)
}

// Task returns a copy of the stored task, tombstones included.
func (db *MemoryDB) Task(id uuid.UUID) (*domain.Task, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tasks[id]
	if !ok {
		return nil, false
	}
	return cloneTask(t), true
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	return &c
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		c.AssigneeID = &id
	}
	return &c
}
