package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/validation"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type stubTasks struct {
	created []models.TaskInput
	filter  models.TaskFilter
}

func (s *stubTasks) List(ctx context.Context, token string, filter models.TaskFilter) ([]models.Task, error) {
	s.filter = filter
	return []models.Task{}, nil
}

func (s *stubTasks) Create(ctx context.Context, token, projectID string, input models.TaskInput) (*models.Task, error) {
	s.created = append(s.created, input)
	return &models.Task{ID: "t1", ProjectID: projectID, Title: input.Title, Status: models.TaskStatus(input.Status)}, nil
}

func (s *stubTasks) Update(ctx context.Context, token, id string, input models.TaskInput) (*models.Task, error) {
	return &models.Task{ID: id, ProjectID: "p1", Title: input.Title}, nil
}

func (s *stubTasks) Delete(ctx context.Context, token, id string) error {
	return nil
}

func (s *stubTasks) Tags(ctx context.Context, token string) ([]models.Tag, error) {
	return []models.Tag{{ID: "1", Name: "ui"}}, nil
}

func (s *stubTasks) CreateTag(ctx context.Context, token string, input models.TagInput) (*models.Tag, error) {
	return &models.Tag{ID: "2", Name: input.Name, Color: input.Color}, nil
}

func newTaskService(t *testing.T, members ...models.ProjectMember) (*TaskService, *stubTasks, *stubInvalidator) {
	repo := &stubTasks{}
	inv := &stubInvalidator{}
	projects := &stubProjects{members: members}
	return NewTaskService(repo, projects, validation.New(testConverter(t), 0), inv, nil), repo, inv
}

func TestTaskCreateDefaultsStatus(t *testing.T) {
	svc, repo, inv := newTaskService(t)
	task, err := svc.Create(context.Background(), testAuth("u1"), "p1", models.TaskInput{Title: "Write intro"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{"u1"}, inv.users)
}

func TestTaskCreateRejectsBadDueDate(t *testing.T) {
	svc, repo, _ := newTaskService(t)
	_, err := svc.Create(context.Background(), testAuth("u1"), "p1", models.TaskInput{Title: "Write intro", DueDate: "2025/01/01"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidDateFormat)
	assert.Empty(t, repo.created)
}

func TestTaskListRequiresProject(t *testing.T) {
	svc, repo, _ := newTaskService(t)
	_, err := svc.List(context.Background(), testAuth("u1"), models.TaskFilter{})
	assert.ErrorIs(t, err, appErrors.ErrMissingRequiredField)

	_, err = svc.List(context.Background(), testAuth("u1"), models.TaskFilter{ProjectID: "p1", Status: "blocked"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.List(context.Background(), testAuth("u1"), models.TaskFilter{ProjectID: "p1", Status: models.TaskStatusDone})
	require.NoError(t, err)
	assert.Equal(t, "p1", repo.filter.ProjectID)
}

func TestTaskCreateTagValidatesColor(t *testing.T) {
	svc, _, _ := newTaskService(t)
	_, err := svc.CreateTag(context.Background(), testAuth("u1"), models.TagInput{Name: "ui", Color: "blue"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	tag, err := svc.CreateTag(context.Background(), testAuth("u1"), models.TagInput{Name: " ui ", Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "ui", tag.Name)
}

func TestTaskWritesClearProjectMemberDashboards(t *testing.T) {
	svc, _, inv := newTaskService(t, models.ProjectMember{UserID: "u1"}, models.ProjectMember{UserID: "u2"})
	auth := testAuth("u1")

	_, err := svc.Create(context.Background(), auth, "p1", models.TaskInput{Title: "Write intro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, inv.users)

	inv.users = nil
	_, err = svc.Update(context.Background(), auth, "t1", models.TaskInput{Title: "Write outro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, inv.users)

	inv.users = nil
	require.NoError(t, svc.Delete(context.Background(), auth, "t1"))
	assert.Equal(t, []string{"u1"}, inv.users)
}
