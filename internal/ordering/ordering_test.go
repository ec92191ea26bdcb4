package ordering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type board struct {
	db      *mocks.MemoryDB
	tasks   *mocks.MockTaskStore
	engine  *Engine
	project *domain.Project
}

func newBoard(t *testing.T) *board {
	t.Helper()

	db := mocks.NewMemoryDB()
	_, _, tasks := db.Stores()

	owner, err := domain.NewUser("owner@example.com", "Owner", "hash")
	require.NoError(t, err)
	db.PutUser(owner)

	project, err := domain.NewProject(owner.ID, "Sample Project", nil, nil)
	require.NoError(t, err)
	db.PutProject(project)

	engine, err := NewEngine(tasks, nil)
	require.NoError(t, err)

	return &board{db: db, tasks: tasks, engine: engine, project: project}
}

func (b *board) add(t *testing.T, title string, status domain.TaskStatus, position int) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(b.project.ID, title, status, "")
	require.NoError(t, err)
	task.Position = position
	b.db.PutTask(task)
	return task
}

func TestNewEngineRequiresStore(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.Error(t, err)
}

func TestNextPosition(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	pos, err := b.engine.NextPosition(ctx, b.project.ID, domain.TaskStatusTodo)
	require.NoError(t, err)
	assert.Equal(t, 0, pos, "empty bucket starts at 0")

	b.add(t, "a", domain.TaskStatusTodo, 0)
	b.add(t, "b", domain.TaskStatusTodo, 7)
	b.add(t, "c", domain.TaskStatusDone, 40)

	pos, err = b.engine.NextPosition(ctx, b.project.ID, domain.TaskStatusTodo)
	require.NoError(t, err)
	assert.Equal(t, 8, pos)

	pos, err = b.engine.NextPosition(ctx, b.project.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 8, pos, "empty status means TODO")

	pos, err = b.engine.NextPosition(ctx, b.project.ID, domain.TaskStatusInReview)
	require.NoError(t, err)
	assert.Equal(t, 0, pos, "buckets are independent")
}

func TestNextPositionIgnoresDeletedTasks(t *testing.T) {
	b := newBoard(t)
	b.add(t, "a", domain.TaskStatusTodo, 2)
	gone := b.add(t, "b", domain.TaskStatusTodo, 9)
	_, err := b.tasks.SoftDelete(context.Background(), gone.ID)
	require.NoError(t, err)

	pos, err := b.engine.NextPosition(context.Background(), b.project.ID, domain.TaskStatusTodo)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestNextPositionStoreError(t *testing.T) {
	b := newBoard(t)
	boom := errors.New("connection reset")
	b.tasks.MaxPositionFn = func(context.Context, uuid.UUID, domain.TaskStatus) (int, bool, error) {
		return 0, false, boom
	}

	_, err := b.engine.NextPosition(context.Background(), b.project.ID, domain.TaskStatusTodo)
	assert.ErrorIs(t, err, boom)
}

func TestResolvePosition(t *testing.T) {
	b := newBoard(t)
	b.add(t, "a", domain.TaskStatusTodo, 4)
	ctx := context.Background()

	zero := 0
	pos, err := b.engine.ResolvePosition(ctx, b.project.ID, domain.TaskStatusTodo, &zero)
	require.NoError(t, err)
	assert.Equal(t, 0, pos, "explicit zero is honored")

	pos, err = b.engine.ResolvePosition(ctx, b.project.ID, domain.TaskStatusTodo, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, pos)

	negative := -1
	_, err = b.engine.ResolvePosition(ctx, b.project.ID, domain.TaskStatusTodo, &negative)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReorderSwapsTasks(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	a := b.add(t, "A", domain.TaskStatusTodo, 0)
	bb := b.add(t, "B", domain.TaskStatusTodo, 1)

	updated, err := b.engine.Reorder(ctx, b.project.ID, []store.PositionMove{
		{TaskID: bb.ID, Position: 0},
		{TaskID: a.ID, Position: 1},
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, bb.ID, updated[0].ID, "results follow input order")
	assert.Equal(t, a.ID, updated[1].ID)

	listed, err := b.tasks.Find(ctx, store.TaskQuery{ProjectID: &b.project.ID})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "B", listed[0].Title)
	assert.Equal(t, "A", listed[1].Title)
}

func TestReorderMovesAcrossBuckets(t *testing.T) {
	b := newBoard(t)
	a := b.add(t, "A", domain.TaskStatusTodo, 0)

	done := domain.TaskStatusDone
	updated, err := b.engine.Reorder(context.Background(), b.project.ID, []store.PositionMove{
		{TaskID: a.ID, Position: 3, Status: &done},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, updated[0].Status)
	assert.Equal(t, 3, updated[0].Position)
}

func TestReorderPersistsCollisionsVerbatim(t *testing.T) {
	b := newBoard(t)
	a := b.add(t, "A", domain.TaskStatusTodo, 0)
	bb := b.add(t, "B", domain.TaskStatusTodo, 1)

	updated, err := b.engine.Reorder(context.Background(), b.project.ID, []store.PositionMove{
		{TaskID: a.ID, Position: 5},
		{TaskID: bb.ID, Position: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated[0].Position)
	assert.Equal(t, 5, updated[1].Position)
}

func TestReorderMissingTaskChangesNothing(t *testing.T) {
	b := newBoard(t)
	a := b.add(t, "A", domain.TaskStatusTodo, 0)

	_, err := b.engine.Reorder(context.Background(), b.project.ID, []store.PositionMove{
		{TaskID: a.ID, Position: 9},
		{TaskID: uuid.New(), Position: 10},
	})
	require.ErrorIs(t, err, ErrReorderFailed)
	assert.NotErrorIs(t, err, store.ErrNotFound, "reorder failures are not reported as not found")

	stored, ok := b.db.Task(a.ID)
	require.True(t, ok)
	assert.Equal(t, 0, stored.Position)
}

func TestReorderRejectsTasksFromOtherProjects(t *testing.T) {
	b := newBoard(t)
	other := newBoard(t)
	foreign := other.add(t, "X", domain.TaskStatusTodo, 0)
	b.db.PutProject(other.project)
	b.db.PutTask(foreign)

	_, err := b.engine.Reorder(context.Background(), b.project.ID, []store.PositionMove{
		{TaskID: foreign.ID, Position: 1},
	})
	assert.ErrorIs(t, err, ErrReorderFailed)
}

func TestReorderValidation(t *testing.T) {
	b := newBoard(t)
	a := b.add(t, "A", domain.TaskStatusTodo, 0)
	bogus := domain.TaskStatus("ARCHIVED")

	_, err := b.engine.Reorder(context.Background(), b.project.ID, []store.PositionMove{{TaskID: a.ID, Position: -2}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = b.engine.Reorder(context.Background(), b.project.ID, []store.PositionMove{{TaskID: a.ID, Position: 1, Status: &bogus}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, b.tasks.UpdatePositionsCalls.Count)
}

func TestReorderEmptyBatch(t *testing.T) {
	b := newBoard(t)

	updated, err := b.engine.Reorder(context.Background(), b.project.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, updated)
	assert.Empty(t, updated)
	assert.Zero(t, b.tasks.UpdatePositionsCalls.Count)
}

func TestCollidingPositionsStillOrderDeterministically(t *testing.T) {
	b := newBoard(t)
	older := b.add(t, "older", domain.TaskStatusTodo, 1)
	newer := b.add(t, "newer", domain.TaskStatusTodo, 1)
	older.CreatedAt = time.Now().Add(-time.Minute)
	b.db.PutTask(older)

	listed, err := b.tasks.Find(context.Background(), store.TaskQuery{ProjectID: &b.project.ID})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID)
	assert.Equal(t, older.ID, listed[1].ID)
}
