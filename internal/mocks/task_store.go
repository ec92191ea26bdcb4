package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MockTaskStore implements store.TaskStore over a MemoryDB with the same
// visibility, ordering and atomicity rules as the PostgreSQL store.
type MockTaskStore struct {
	db *MemoryDB

	// Function fields override the in-memory behavior when set
	CreateFn          func(ctx context.Context, task *domain.Task) error
	MaxPositionFn     func(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (int, bool, error)
	UpdatePositionsFn func(ctx context.Context, projectID uuid.UUID, moves []store.PositionMove) ([]*domain.Task, error)

	// Call tracking for verification
	UpdatePositionsCalls struct {
		mu    sync.Mutex
		Count int
	}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// WithTx implements store.TaskStore
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// live reports whether t and its project are both not deleted.
// Callers hold db.mu.
func (m *MockTaskStore) live(t *domain.Task) bool {
	if t.IsDeleted() {
		return false
	}
	p, ok := m.db.projects[t.ProjectID]
	return ok && !p.IsDeleted()
}

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.projects[task.ProjectID]; !ok {
		return fmt.Errorf("%w: project %s not found", store.ErrInvalidEntity, task.ProjectID)
	}
	if task.AssigneeID != nil {
		if _, ok := m.db.users[*task.AssigneeID]; !ok {
			return fmt.Errorf("%w: assignee %s not found", store.ErrInvalidEntity, *task.AssigneeID)
		}
	}
	m.db.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetByID implements store.TaskStore
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID, opts ...store.FindOption) (*domain.Task, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	t, ok := m.db.tasks[id]
	if !ok || (!m.live(t) && !store.ApplyFindOptions(opts...).IncludeDeleted) {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (m *MockTaskStore) matches(t *domain.Task, q store.TaskQuery) bool {
	if !m.live(t) {
		return false
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	if q.AssigneeID != nil && !t.IsAssignedTo(*q.AssigneeID) {
		return false
	}
	if q.ProjectID != nil && t.ProjectID != *q.ProjectID {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		inTitle := strings.Contains(strings.ToLower(t.Title), search)
		inDesc := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), search)
		if !inTitle && !inDesc {
			return false
		}
	}
	if q.VisibleTo != nil {
		owner := m.db.projects[t.ProjectID].OwnerID
		if owner != *q.VisibleTo && !t.IsAssignedTo(*q.VisibleTo) {
			return false
		}
	}
	return true
}

// compareField orders two tasks by a sort field. ok is false when the values
// are equal. Missing values sort last regardless of direction.
func (m *MockTaskStore) compareField(a, b *domain.Task, field store.TaskSortField) (less, nullA, nullB bool, ok bool) {
	cmpStr := func(x, y string) (bool, bool, bool, bool) { return x < y, false, false, x != y }
	cmpInt := func(x, y int) (bool, bool, bool, bool) { return x < y, false, false, x != y }
	cmpTime := func(x, y time.Time) (bool, bool, bool, bool) { return x.Before(y), false, false, !x.Equal(y) }

	switch field {
	case store.TaskSortTitle:
		return cmpStr(a.Title, b.Title)
	case store.TaskSortStatus:
		return cmpInt(a.Status.Rank(), b.Status.Rank())
	case store.TaskSortPriority:
		return cmpInt(a.Priority.Rank(), b.Priority.Rank())
	case store.TaskSortPosition:
		return cmpInt(a.Position, b.Position)
	case store.TaskSortCreatedAt:
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case store.TaskSortUpdatedAt:
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	case store.TaskSortDueDate:
		if a.DueDate == nil || b.DueDate == nil {
			return false, a.DueDate == nil, b.DueDate == nil, (a.DueDate == nil) != (b.DueDate == nil)
		}
		return cmpTime(*a.DueDate, *b.DueDate)
	case store.TaskSortProject:
		return cmpStr(m.db.projects[a.ProjectID].Name, m.db.projects[b.ProjectID].Name)
	case store.TaskSortAssignee:
		name := func(t *domain.Task) *string {
			if t.AssigneeID == nil {
				return nil
			}
			if u, ok := m.db.users[*t.AssigneeID]; ok {
				return &u.Name
			}
			return nil
		}
		na, nb := name(a), name(b)
		if na == nil || nb == nil {
			return false, na == nil, nb == nil, (na == nil) != (nb == nil)
		}
		return cmpStr(*na, *nb)
	}
	return false, false, false, false
}

func (m *MockTaskStore) sortTasks(tasks []*domain.Task, q store.TaskQuery) {
	if !q.SortBy.IsValid() {
		sort.Slice(tasks, func(i, j int) bool { return domain.BoardLess(tasks[i], tasks[j]) })
		return
	}
	desc := q.Order == store.SortDesc
	sort.Slice(tasks, func(i, j int) bool {
		less, nullA, nullB, differ := m.compareField(tasks[i], tasks[j], q.SortBy)
		if !differ {
			return tasks[i].ID.String() < tasks[j].ID.String()
		}
		if nullA || nullB {
			return nullB
		}
		if desc {
			return !less
		}
		return less
	})
}

// Find implements store.TaskStore
func (m *MockTaskStore) Find(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	tasks := []*domain.Task{}
	for _, t := range m.db.tasks {
		if m.matches(t, q) {
			tasks = append(tasks, cloneTask(t))
		}
	}
	m.sortTasks(tasks, q)

	if q.Offset > 0 {
		if q.Offset >= len(tasks) {
			return []*domain.Task{}, nil
		}
		tasks = tasks[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(tasks) {
		tasks = tasks[:q.Limit]
	}
	return tasks, nil
}

// Count implements store.TaskStore
func (m *MockTaskStore) Count(ctx context.Context, q store.TaskQuery) (int, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	n := 0
	for _, t := range m.db.tasks {
		if m.matches(t, q) {
			n++
		}
	}
	return n, nil
}

// CountByProjects implements store.TaskStore
func (m *MockTaskStore) CountByProjects(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}
	counts := make(map[uuid.UUID]int)
	for _, t := range m.db.tasks {
		if wanted[t.ProjectID] && !t.IsDeleted() {
			counts[t.ProjectID]++
		}
	}
	return counts, nil
}

// Update implements store.TaskStore
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	existing, ok := m.db.tasks[task.ID]
	if !ok || existing.IsDeleted() {
		return store.ErrTaskNotFound
	}
	if task.AssigneeID != nil {
		if _, ok := m.db.users[*task.AssigneeID]; !ok {
			return fmt.Errorf("%w: assignee %s not found", store.ErrInvalidEntity, *task.AssigneeID)
		}
	}
	task.UpdatedAt = time.Now().UTC()
	m.db.tasks[task.ID] = cloneTask(task)
	return nil
}

// SoftDelete implements store.TaskStore
func (m *MockTaskStore) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	t, ok := m.db.tasks[id]
	if !ok || t.IsDeleted() {
		return nil, store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	t.UpdatedAt = now
	return cloneTask(t), nil
}

// MaxPosition implements store.TaskStore
func (m *MockTaskStore) MaxPosition(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (int, bool, error) {
	if m.MaxPositionFn != nil {
		return m.MaxPositionFn(ctx, projectID, status)
	}

	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	max, found := 0, false
	for _, t := range m.db.tasks {
		if t.ProjectID != projectID || t.Status != status || t.IsDeleted() {
			continue
		}
		if !found || t.Position > max {
			max, found = t.Position, true
		}
	}
	return max, found, nil
}

// UpdatePositions implements store.TaskStore. All moves are validated
// before any is applied, so a failing batch leaves the data untouched.
func (m *MockTaskStore) UpdatePositions(
	ctx context.Context,
	projectID uuid.UUID,
	moves []store.PositionMove,
) ([]*domain.Task, error) {
	m.UpdatePositionsCalls.mu.Lock()
	m.UpdatePositionsCalls.Count++
	m.UpdatePositionsCalls.mu.Unlock()

	if m.UpdatePositionsFn != nil {
		return m.UpdatePositionsFn(ctx, projectID, moves)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	staged := make(map[uuid.UUID]*domain.Task, len(moves))
	for _, mv := range moves {
		t, ok := m.db.tasks[mv.TaskID]
		if !ok || t.ProjectID != projectID || t.IsDeleted() {
			return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, mv.TaskID)
		}
		if _, seen := staged[mv.TaskID]; !seen {
			staged[mv.TaskID] = cloneTask(t)
		}
	}

	now := time.Now().UTC()
	updated := make([]*domain.Task, 0, len(moves))
	for _, mv := range moves {
		t := staged[mv.TaskID]
		t.Position = mv.Position
		if mv.Status != nil {
			t.Status = *mv.Status
		}
		t.UpdatedAt = now
		updated = append(updated, cloneTask(t))
	}
	for id, t := range staged {
		m.db.tasks[id] = t
	}
	return updated, nil
}
