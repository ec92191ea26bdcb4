package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/ordering"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriptions(t *testing.T, b *board, hub *realtime.Hub) service.SubscriptionService {
	t.Helper()
	svc, err := service.NewSubscriptionService(hub, b.projects, b.tasks, nil)
	require.NoError(t, err)
	return svc
}

func TestJoinProject_Policy(t *testing.T) {
	t.Parallel()
	b := newBoard(t)
	hub := realtime.NewHub(nil)
	subs := newSubscriptions(t, b, hub)
	ctx := context.Background()

	conns := map[string]*recordingConn{}
	for name, u := range map[string]*domain.User{
		"admin": b.admin, "owner": b.owner, "assignee": b.assignee, "stranger": b.stranger,
	} {
		c := newRecordingConn(u.ID)
		hub.Register(c)
		conns[name] = c
	}

	require.NoError(t, subs.JoinProject(ctx, actor(b.admin), conns["admin"].ID(), b.project.ID))
	require.NoError(t, subs.JoinProject(ctx, actor(b.owner), conns["owner"].ID(), b.project.ID))
	require.NoError(t, subs.JoinProject(ctx, actor(b.assignee), conns["assignee"].ID(), b.project.ID),
		"an assignee may follow the board without project access")

	err := subs.JoinProject(ctx, actor(b.stranger), conns["stranger"].ID(), b.project.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = subs.JoinProject(ctx, actor(b.owner), conns["stranger"].ID(), b.project.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the connection's opener may use it")

	err = subs.JoinProject(ctx, actor(b.owner), "no-such-connection", b.project.ID)
	assert.ErrorIs(t, err, service.ErrConnectionNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = subs.JoinProject(ctx, actor(b.owner), conns["owner"].ID(), uuid.New())
	assert.ErrorIs(t, err, store.ErrProjectNotFound)

	assert.Len(t, hub.Members(b.project.ID), 3)
}

func TestLeaveProject_Idempotent(t *testing.T) {
	t.Parallel()
	b := newBoard(t)
	hub := realtime.NewHub(nil)
	subs := newSubscriptions(t, b, hub)
	ctx := context.Background()

	c := newRecordingConn(b.owner.ID)
	hub.Register(c)
	require.NoError(t, subs.JoinProject(ctx, actor(b.owner), c.ID(), b.project.ID))

	require.NoError(t, subs.LeaveProject(ctx, actor(b.owner), c.ID(), b.project.ID))
	require.NoError(t, subs.LeaveProject(ctx, actor(b.owner), c.ID(), b.project.ID))
	assert.Empty(t, hub.Members(b.project.ID))
	assert.Empty(t, hub.Groups(c.ID()))

	err := subs.LeaveProject(ctx, actor(b.stranger), c.ID(), b.project.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Two connections join a project, one leaves, and a task is created: only the
// remaining member hears about it.
func TestTaskCreated_ReachesJoinedConnectionsOnly(t *testing.T) {
	t.Parallel()
	b := newBoard(t)
	hub := realtime.NewHub(nil)
	subs := newSubscriptions(t, b, hub)
	ctx := context.Background()

	engine, err := ordering.NewEngine(b.tasks, nil)
	require.NoError(t, err)
	tasks, err := service.NewTaskService(b.tasks, b.projects, b.users, engine, hub, nil)
	require.NoError(t, err)

	stays := newRecordingConn(b.owner.ID)
	leaves := newRecordingConn(b.assignee.ID)
	bystander := newRecordingConn(b.admin.ID)
	for _, c := range []*recordingConn{stays, leaves, bystander} {
		hub.Register(c)
	}
	require.NoError(t, subs.JoinProject(ctx, actor(b.owner), stays.ID(), b.project.ID))
	require.NoError(t, subs.JoinProject(ctx, actor(b.assignee), leaves.ID(), b.project.ID))
	require.NoError(t, subs.LeaveProject(ctx, actor(b.assignee), leaves.ID(), b.project.ID))

	_, err = tasks.CreateTask(ctx, actor(b.owner), service.CreateTaskInput{ProjectID: b.project.ID, Title: "Ping"})
	require.NoError(t, err)

	assert.Equal(t, []realtime.EventType{realtime.EventTaskCreated}, stays.received())
	assert.Empty(t, leaves.received())
	assert.Empty(t, bystander.received())
}
