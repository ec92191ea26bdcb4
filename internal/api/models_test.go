package api

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListTasksQuery(t *testing.T) {
	t.Parallel()

	projectID := uuid.New()
	r := httptest.NewRequest("GET",
		"/tasks?status=in_progress&priority=high&project_id="+projectID.String()+
			"&search=+docs+&page=2&limit=50&sort_by=due_date&order=ASC", nil)

	q, err := parseListTasksQuery(r)
	require.NoError(t, err)
	require.NoError(t, shared.ValidateRequest(&q))

	in := q.Input()
	require.NotNil(t, in.Status)
	assert.Equal(t, domain.TaskStatusInProgress, *in.Status)
	require.NotNil(t, in.Priority)
	assert.Equal(t, domain.TaskPriorityHigh, *in.Priority)
	require.NotNil(t, in.ProjectID)
	assert.Equal(t, projectID, *in.ProjectID)
	assert.Nil(t, in.AssigneeID)
	assert.Equal(t, "docs", in.Search)
	assert.Equal(t, 2, in.Page)
	assert.Equal(t, 50, in.Limit)
	assert.Equal(t, store.TaskSortDueDate, in.SortBy)
	assert.Equal(t, store.SortAsc, in.Order)

	empty, err := parseListTasksQuery(httptest.NewRequest("GET", "/tasks", nil))
	require.NoError(t, err)
	assert.Equal(t, ListTasksQuery{}, empty)

	_, err = parseListTasksQuery(httptest.NewRequest("GET", "/tasks?page=two", nil))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReorderTasksRequest(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	zero, one := 0, 1
	done := "DONE"
	req := ReorderTasksRequest{Tasks: []ReorderItem{
		{ID: b, Position: &zero, Status: &done},
		{ID: a, Position: &one},
	}}
	require.NoError(t, shared.ValidateRequest(&req))

	moves := req.Moves()
	require.Len(t, moves, 2)
	assert.Equal(t, b, moves[0].TaskID)
	require.NotNil(t, moves[0].Status)
	assert.Equal(t, domain.TaskStatusDone, *moves[0].Status)
	assert.Equal(t, a, moves[1].TaskID)
	assert.Nil(t, moves[1].Status)

	missing := ReorderTasksRequest{Tasks: []ReorderItem{{ID: a}}}
	assert.Error(t, shared.ValidateRequest(&missing), "position is required")

	dup := ReorderTasksRequest{Tasks: []ReorderItem{{ID: a, Position: &zero}, {ID: a, Position: &one}}}
	assert.ErrorIs(t, shared.ValidateRequest(&dup), domain.ErrValidation)
}

func TestUpdateTaskRequestInput(t *testing.T) {
	t.Parallel()

	title := "New title"
	status := "DONE"
	req := UpdateTaskRequest{
		Title:       &title,
		Status:      &status,
		Description: Nullable[string]{Set: true},
	}
	require.NoError(t, shared.ValidateRequest(&req))

	in := req.Input()
	assert.Equal(t, &title, in.Title)
	require.NotNil(t, in.Status)
	assert.Equal(t, domain.TaskStatusDone, *in.Status)
	assert.True(t, in.Description.Set)
	assert.Nil(t, in.Description.Value)
	assert.False(t, in.AssigneeID.Set)
	assert.Nil(t, in.Priority)

	blank := "  "
	assert.ErrorIs(t, shared.ValidateRequest(&UpdateTaskRequest{Title: &blank}), domain.ErrValidation)
}
