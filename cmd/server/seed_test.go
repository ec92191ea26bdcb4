package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeedStores() stores {
	users, projects, tasks := mocks.NewMemoryDB().Stores()
	return stores{users: users, projects: projects, tasks: tasks}
}

func TestSeedData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newSeedStores()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, seedData(ctx, s, &mocks.MockPasswordVerifier{}, logger))

	admin, err := s.users.GetByEmail(ctx, "admin@taskboard.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, "hashed:admin123", admin.HashedPassword)

	regular, err := s.users.GetByEmail(ctx, "user@taskboard.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, regular.Role)

	projects, err := s.projects.Find(ctx, store.ProjectQuery{OwnerID: &admin.ID})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, sampleProjectName, projects[0].Name)

	tasks, err := s.tasks.Find(ctx, store.TaskQuery{ProjectID: &projects[0].ID})
	require.NoError(t, err)
	assert.Len(t, tasks, len(seedTasks))

	buckets := map[domain.TaskStatus]int{}
	for _, task := range tasks {
		buckets[task.Status]++
	}
	assert.Equal(t, 3, buckets[domain.TaskStatusTodo])
	assert.Equal(t, 1, buckets[domain.TaskStatusInProgress])
	assert.Equal(t, 1, buckets[domain.TaskStatusDone])

	assigned, err := s.tasks.Find(ctx, store.TaskQuery{AssigneeID: &regular.ID})
	require.NoError(t, err)
	assert.Len(t, assigned, 2)
}

func TestSeedDataIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newSeedStores()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := &mocks.MockPasswordVerifier{}

	require.NoError(t, seedData(ctx, s, hasher, logger))
	require.NoError(t, seedData(ctx, s, hasher, logger))

	users, err := s.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, len(seedUsers))

	tasks, err := s.tasks.Find(ctx, store.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, tasks, len(seedTasks))
}
