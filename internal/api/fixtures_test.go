package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/ordering"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/stretchr/testify/require"
)

// testActorHeader names the seeded user a test request acts as. It stands
// in for the auth middleware, which is tested on its own.
const testActorHeader = "X-Test-User"

// testAPI is a router over real services and an in-memory store.
type testAPI struct {
	db        *mocks.MemoryDB
	broadcast *mocks.RecordingBroadcaster
	hub       *realtime.Hub
	router    chi.Router

	admin, owner, assignee, stranger *domain.User
	project                          *domain.Project
	assignedTask                     *domain.Task
}

func newTestUser(name string, role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID: uuid.New(), Email: name + "@example.com", Name: name, Role: role,
		HashedPassword: "hashed:" + name + "-password", CreatedAt: now, UpdatedAt: now,
	}
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	a := &testAPI{
		db:        mocks.NewMemoryDB(),
		broadcast: &mocks.RecordingBroadcaster{},
		hub:       realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	users, projects, tasks := a.db.Stores()

	a.admin = newTestUser("admin", domain.RoleAdmin)
	a.owner = newTestUser("owner", domain.RoleUser)
	a.assignee = newTestUser("assignee", domain.RoleUser)
	a.stranger = newTestUser("stranger", domain.RoleUser)
	for _, u := range []*domain.User{a.admin, a.owner, a.assignee, a.stranger} {
		a.db.PutUser(u)
	}

	var err error
	a.project, err = domain.NewProject(a.owner.ID, "Sample Project", nil, nil)
	require.NoError(t, err)
	a.db.PutProject(a.project)

	a.assignedTask, err = domain.NewTask(a.project.ID, "Assigned work", domain.TaskStatusInProgress, "")
	require.NoError(t, err)
	a.assignedTask.AssigneeID = &a.assignee.ID
	a.db.PutTask(a.assignedTask)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := ordering.NewEngine(tasks, log)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(tasks, projects, users, engine, a.broadcast, log)
	require.NoError(t, err)
	projectSvc, err := service.NewProjectService(projects, tasks, users, a.broadcast, log)
	require.NoError(t, err)
	userSvc, err := service.NewUserService(users, projects, tasks, log)
	require.NoError(t, err)
	subSvc, err := service.NewSubscriptionService(a.hub, projects, tasks, log)
	require.NoError(t, err)

	taskHandler := api.NewTaskHandler(taskSvc, log)
	projectHandler := api.NewProjectHandler(projectSvc, log)
	userHandler := api.NewUserHandler(userSvc, log)
	realtimeHandler := api.NewRealtimeHandler(a.hub, subSvc, realtime.StreamOptions{}, log)

	r := chi.NewRouter()
	r.Use(a.impersonate)
	r.Post("/tasks", taskHandler.CreateTask)
	r.Get("/tasks", taskHandler.ListTasks)
	r.Get("/tasks/{id}", taskHandler.GetTask)
	r.Patch("/tasks/{id}", taskHandler.UpdateTask)
	r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	r.Patch("/tasks/projects/{projectId}/reorder", taskHandler.ReorderTasks)
	r.Post("/projects", projectHandler.CreateProject)
	r.Get("/projects", projectHandler.ListProjects)
	r.Get("/projects/{id}", projectHandler.GetProject)
	r.Patch("/projects/{id}", projectHandler.UpdateProject)
	r.Delete("/projects/{id}", projectHandler.DeleteProject)
	r.Get("/users", userHandler.ListUsers)
	r.Get("/users/{id}", userHandler.GetUser)
	r.Patch("/users/{id}", userHandler.UpdateUser)
	r.Delete("/users/{id}", userHandler.DeleteUser)
	r.Post("/realtime/connections/{connId}/projects/{projectId}", realtimeHandler.JoinProject)
	r.Delete("/realtime/connections/{connId}/projects/{projectId}", realtimeHandler.LeaveProject)
	a.router = r
	return a
}

func (a *testAPI) impersonate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(testActorHeader))
		if err == nil {
			for _, u := range []*domain.User{a.admin, a.owner, a.assignee, a.stranger} {
				if u.ID == id {
					r = r.WithContext(shared.WithActor(r.Context(), u))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// do sends a request as user (nil for anonymous) and returns the recorder.
func (a *testAPI) do(t *testing.T, user *domain.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set(testActorHeader, user.ID.String())
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// envelope is the decoded success or error body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   string          `json:"error"`
	TraceID string          `json:"trace_id"`
	Path    string          `json:"path"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}
