//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TASKBOARD_TEST_DATABASE_URL and migrates it.
// Fixtures use fresh IDs so tests do not interfere with each other.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TASKBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TASKBOARD_TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(Migrations)
	t.Cleanup(func() { goose.SetBaseFS(nil) })
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, MigrationsDir))

	return db
}

type fixture struct {
	users    *PostgresUserStore
	projects *PostgresProjectStore
	tasks    *PostgresTaskStore
	owner    *domain.User
	project  *domain.Project
}

func newFixture(t *testing.T, db *sql.DB) fixture {
	t.Helper()
	ctx := context.Background()

	f := fixture{
		users:    NewPostgresUserStore(db, nil),
		projects: NewPostgresProjectStore(db, nil),
		tasks:    NewPostgresTaskStore(db, nil),
	}

	owner, err := domain.NewUser(uuid.NewString()+"@example.com", "Owner", "hash")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, owner))
	f.owner = owner

	project, err := domain.NewProject(owner.ID, "Sample Project", nil, nil)
	require.NoError(t, err)
	require.NoError(t, f.projects.Create(ctx, project))
	f.project = project

	return f
}

func (f fixture) addTask(t *testing.T, title string, position int) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(f.project.ID, title, domain.TaskStatusTodo, "")
	require.NoError(t, err)
	task.Position = position
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func TestIntegration_ReorderSwapsTasks(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.addTask(t, "A", 0)
	b := f.addTask(t, "B", 1)

	updated, err := f.tasks.UpdatePositions(ctx, f.project.ID, []store.PositionMove{
		{TaskID: b.ID, Position: 0},
		{TaskID: a.ID, Position: 1},
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)

	board, err := f.tasks.Find(ctx, store.TaskQuery{ProjectID: &f.project.ID})
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "B", board[0].Title)
	assert.Equal(t, "A", board[1].Title)
}

func TestIntegration_ReorderWithMissingTaskChangesNothing(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.addTask(t, "A", 0)

	_, err := f.tasks.UpdatePositions(ctx, f.project.ID, []store.PositionMove{
		{TaskID: a.ID, Position: 9},
		{TaskID: uuid.New(), Position: 10},
	})
	require.ErrorIs(t, err, store.ErrTaskNotFound)

	reloaded, err := f.tasks.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Position)
}

func TestIntegration_SoftDeletedTasksAreHidden(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.addTask(t, "A", 0)
	f.addTask(t, "B", 1)

	tomb, err := f.tasks.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, tomb.DeletedAt)

	listed, err := f.tasks.Find(ctx, store.TaskQuery{ProjectID: &f.project.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "B", listed[0].Title)

	_, err = f.tasks.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	found, err := f.tasks.GetByID(ctx, a.ID, store.IncludeDeleted())
	require.NoError(t, err)
	assert.WithinDuration(t, *tomb.DeletedAt, *found.DeletedAt, time.Millisecond)

	max, ok, err := f.tasks.MaxPosition(ctx, f.project.ID, domain.TaskStatusTodo)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, max)
}

func TestIntegration_DeletedProjectHidesTasks(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.addTask(t, "A", 0)

	_, err := f.projects.SoftDelete(ctx, f.project.ID)
	require.NoError(t, err)

	_, err = f.tasks.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	n, err := f.tasks.Count(ctx, store.TaskQuery{ProjectID: &f.project.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db)

	dup, err := domain.NewUser(f.owner.Email, "Other", "hash")
	require.NoError(t, err)
	assert.ErrorIs(t, f.users.Create(context.Background(), dup), store.ErrEmailExists)
}

func TestIntegration_SearchIsCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db)
	ctx := context.Background()

	f.addTask(t, "Write Release Notes", 0)
	f.addTask(t, "Fix login", 1)

	hits, err := f.tasks.Find(ctx, store.TaskQuery{ProjectID: &f.project.ID, Search: "release"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Write Release Notes", hits[0].Title)
}
