package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

func manila(t *testing.T) *zonedtime.Converter {
	t.Helper()
	conv, err := zonedtime.NewConverter("Asia/Manila", zonedtime.DisambiguateCompatible)
	require.NoError(t, err)
	return conv
}

func TestFlexStringAcceptsNumbers(t *testing.T) {
	var raw rawEvent
	require.NoError(t, json.Unmarshal([]byte(`{"event_id": 42, "name": "Kickoff", "event_type": "Meeting", "start_time": "2025-03-01T09:00", "due_date": null}`), &raw))

	event := normalizeEvent(raw)
	assert.Equal(t, "42", event.ID)
	assert.Equal(t, "Kickoff", event.Title)
	assert.Equal(t, models.EventKindMeeting, event.Kind)
	require.NotNil(t, event.Start)
	assert.Equal(t, "2025-03-01T09:00", *event.Start)
	assert.Nil(t, event.End)
}

func TestNormalizeProjectRoleSpellings(t *testing.T) {
	cases := map[string]models.ProjectRole{
		`{"id": 1, "name": "A", "user_role": "Owner"}`:              models.ProjectRoleOwner,
		`{"id": 2, "name": "B", "role": "manager"}`:                 models.ProjectRoleAdmin,
		`{"id": 3, "name": "C", "currentUserRole": "viewer"}`:       models.ProjectRoleViewer,
		`{"id": 4, "name": "D"}`:                                    models.ProjectRoleMember,
		`{"id": 5, "title": "E", "user_role": "", "role": "admin"}`: models.ProjectRoleAdmin,
	}
	for body, want := range cases {
		var raw rawProject
		require.NoError(t, json.Unmarshal([]byte(body), &raw), body)
		assert.Equal(t, want, normalizeProject(raw).Role, body)
	}
}

func TestNormalizeProjectMemberCount(t *testing.T) {
	var raw rawProject
	require.NoError(t, json.Unmarshal([]byte(`{"project_id": "p1", "project_name": "Launch", "members": [{"id": 1}, {"id": 2}], "created_at": "2025-01-01T00:00:00Z"}`), &raw))
	project := normalizeProject(raw)
	assert.Equal(t, "p1", project.ID)
	assert.Equal(t, "Launch", project.Name)
	assert.Equal(t, 2, project.MemberCount)
	require.NotNil(t, project.CreatedAt)
	assert.Equal(t, "2025-01-01T00:00:00Z", project.CreatedAt.String())
}

func TestNormalizeTask(t *testing.T) {
	conv := manila(t)
	var raw rawTask
	require.NoError(t, json.Unmarshal([]byte(`{"task_id": 7, "projectId": 3, "name": "Draft", "task_status": "In Progress", "assigned_to": 9, "deadline": "2025-01-31T20:00:00Z", "tags": ["ui", {"label": "backend"}, ""]}`), &raw))

	task := normalizeTask(raw, conv)
	assert.Equal(t, "7", task.ID)
	assert.Equal(t, "3", task.ProjectID)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, "9", *task.AssigneeID)
	require.NotNil(t, task.DueDate)
	// 20:00Z is already the next day in Manila.
	assert.Equal(t, "2025-02-01", *task.DueDate)
	assert.Equal(t, []string{"ui", "backend"}, task.Tags)
}

func TestNormalizeStatusSpellings(t *testing.T) {
	assert.Equal(t, models.TaskStatusDone, normalizeStatus("Completed"))
	assert.Equal(t, models.TaskStatusInProgress, normalizeStatus("in-progress"))
	assert.Equal(t, models.TaskStatusTodo, normalizeStatus("pending"))
}

func TestNormalizeActivitySkipsUnparseable(t *testing.T) {
	conv := manila(t)
	_, ok := normalizeActivity(rawActivity{ID: "1", CreatedAt: "yesterday"}, "p1", conv)
	assert.False(t, ok)

	entry, ok := normalizeActivity(rawActivity{ID: "2", UserName: "Ana", Type: "CREATED", Target: "task", Timestamp: "2025-01-01T00:00:00Z"}, "p1", conv)
	require.True(t, ok)
	assert.Equal(t, "p1", entry.ProjectID)
	assert.Equal(t, "Ana", entry.Actor)
	assert.Equal(t, "created", entry.Action)
	assert.Equal(t, "2025-01-01T08:00", entry.LocalTime)
}
