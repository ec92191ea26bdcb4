package api_test

import (
	"net/http"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLifecycle(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rr := a.do(t, a.stranger, http.MethodPost, "/projects", map[string]interface{}{
		"name": "Side Project", "color": "#3366ff",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created service.ProjectView
	decodeData(t, rr, &created)
	assert.Equal(t, a.stranger.ID, created.OwnerID)
	require.NotNil(t, created.Owner)
	assert.Equal(t, "stranger", created.Owner.Name)
	assert.Equal(t, 0, created.TaskCount)

	path := "/projects/" + created.ID.String()

	rr = a.do(t, a.stranger, http.MethodPatch, path, `{"description":"weekend work","color":null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated service.ProjectView
	decodeData(t, rr, &updated)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "weekend work", *updated.Description)
	assert.Nil(t, updated.Color)
	assert.Equal(t, "Side Project", updated.Name)

	rr = a.do(t, a.stranger, http.MethodGet, "/projects", nil)
	var mine []service.ProjectView
	decodeData(t, rr, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	rr = a.do(t, a.admin, http.MethodGet, "/projects", nil)
	var all []service.ProjectView
	decodeData(t, rr, &all)
	assert.Len(t, all, 2)

	rr = a.do(t, a.stranger, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var deleted service.DeletedProject
	decodeData(t, rr, &deleted)
	assert.False(t, deleted.DeletedAt.IsZero())

	assert.Equal(t, http.StatusNotFound, a.do(t, a.stranger, http.MethodGet, path, nil).Code)
	assert.Equal(t,
		[]realtime.EventType{realtime.EventProjectUpdated, realtime.EventProjectUpdated, realtime.EventProjectUpdated},
		a.broadcast.Events())
}

func TestProjectAccess(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	path := "/projects/" + a.project.ID.String()

	rr := a.do(t, a.owner, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var detail service.ProjectDetail
	decodeData(t, rr, &detail)
	assert.Equal(t, 1, detail.TaskCount)
	require.Len(t, detail.Tasks, 1)

	// Being assigned a task does not grant project access.
	assert.Equal(t, http.StatusForbidden, a.do(t, a.assignee, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, a.assignee, http.MethodPatch, path, `{"name":"mine"}`).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, a.stranger, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, a.admin, http.MethodGet, path, nil).Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, a.owner, http.MethodPatch, path, `{"name":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, a.owner, http.MethodPatch, path, `{"color":"blue"}`).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, a.owner, http.MethodPost, "/projects", `{"name":""}`).Code)
}
