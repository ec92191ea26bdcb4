package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/ordering"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/stretchr/testify/require"
)

// board is a seeded in-memory world: an admin, a project owner, an assignee
// with a task in the owner's project, and an unrelated user.
type board struct {
	db        *mocks.MemoryDB
	users     *mocks.MockUserStore
	projects  *mocks.MockProjectStore
	tasks     *mocks.MockTaskStore
	broadcast *mocks.RecordingBroadcaster

	admin, owner, assignee, stranger *domain.User
	project                          *domain.Project
	assignedTask                     *domain.Task

	taskSvc    service.TaskService
	projectSvc service.ProjectService
	userSvc    service.UserService
}

func newUser(name string, role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Email:          name + "@example.com",
		Name:           name,
		Role:           role,
		HashedPassword: "hashed",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newBoard(t *testing.T) *board {
	t.Helper()

	b := &board{db: mocks.NewMemoryDB(), broadcast: &mocks.RecordingBroadcaster{}}
	b.users, b.projects, b.tasks = b.db.Stores()

	b.admin = newUser("admin", domain.RoleAdmin)
	b.owner = newUser("owner", domain.RoleUser)
	b.assignee = newUser("assignee", domain.RoleUser)
	b.stranger = newUser("stranger", domain.RoleUser)
	for _, u := range []*domain.User{b.admin, b.owner, b.assignee, b.stranger} {
		b.db.PutUser(u)
	}

	var err error
	b.project, err = domain.NewProject(b.owner.ID, "Sample Project", nil, nil)
	require.NoError(t, err)
	b.db.PutProject(b.project)

	b.assignedTask, err = domain.NewTask(b.project.ID, "Assigned work", domain.TaskStatusInProgress, "")
	require.NoError(t, err)
	b.assignedTask.AssigneeID = &b.assignee.ID
	b.db.PutTask(b.assignedTask)

	engine, err := ordering.NewEngine(b.tasks, nil)
	require.NoError(t, err)

	b.taskSvc, err = service.NewTaskService(b.tasks, b.projects, b.users, engine, b.broadcast, nil)
	require.NoError(t, err)
	b.projectSvc, err = service.NewProjectService(b.projects, b.tasks, b.users, b.broadcast, nil)
	require.NoError(t, err)
	b.userSvc, err = service.NewUserService(b.users, b.projects, b.tasks, nil)
	require.NoError(t, err)
	return b
}

func actor(u *domain.User) domain.Actor {
	return domain.ActorFor(u)
}

// recordingConn is a realtime.Conn that remembers what it was sent.
type recordingConn struct {
	id     string
	userID uuid.UUID

	mu     sync.Mutex
	events []realtime.EventType
}

func newRecordingConn(userID uuid.UUID) *recordingConn {
	return &recordingConn{id: uuid.NewString(), userID: userID}
}

func (c *recordingConn) ID() string        { return c.id }
func (c *recordingConn) UserID() uuid.UUID { return c.userID }

func (c *recordingConn) Send(event realtime.EventType, _ []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return true
}

func (c *recordingConn) received() []realtime.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.EventType(nil), c.events...)
}
