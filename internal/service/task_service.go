package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context, token string, filter models.TaskFilter) ([]models.Task, error)
	Create(ctx context.Context, token, projectID string, input models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, token, id string, input models.TaskInput) (*models.Task, error)
	Delete(ctx context.Context, token, id string) error
	Tags(ctx context.Context, token string) ([]models.Tag, error)
	CreateTag(ctx context.Context, token string, input models.TagInput) (*models.Tag, error)
}

type taskValidator interface {
	Struct(payload interface{}) error
	Task(in models.TaskInput) error
}

// TaskService exposes task and tag use cases.
type TaskService struct {
	repo      taskRepository
	validator taskValidator
	audience  projectAudience
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskRepository, members memberLister, validate taskValidator, dashboard dashboardInvalidator, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		repo:      repo,
		validator: validate,
		audience:  projectAudience{members: members, dashboard: dashboard, logger: logger},
		logger:    logger,
	}
}

// List returns the tasks of a project.
func (s *TaskService) List(ctx context.Context, auth *models.AuthContext, filter models.TaskFilter) ([]models.Task, error) {
	if strings.TrimSpace(filter.ProjectID) == "" {
		return nil, appErrors.MissingField("project_id")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		clone := appErrors.Clone(appErrors.ErrValidation, "unknown task status")
		clone.Field = "status"
		return nil, clone
	}
	return s.repo.List(ctx, auth.UpstreamToken(), filter)
}

// Create stores a task in a project.
func (s *TaskService) Create(ctx context.Context, auth *models.AuthContext, projectID string, input models.TaskInput) (*models.Task, error) {
	if err := s.validator.Task(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = string(models.TaskStatusTodo)
	}
	task, err := s.repo.Create(ctx, auth.UpstreamToken(), projectID, input)
	if err != nil {
		return nil, err
	}
	s.audience.touch(ctx, auth, projectID)
	return task, nil
}

// Update changes a task.
func (s *TaskService) Update(ctx context.Context, auth *models.AuthContext, id string, input models.TaskInput) (*models.Task, error) {
	if err := s.validator.Task(input); err != nil {
		return nil, err
	}
	task, err := s.repo.Update(ctx, auth.UpstreamToken(), id, input)
	if err != nil {
		return nil, err
	}
	s.audience.touch(ctx, auth, task.ProjectID)
	return task, nil
}

// Delete removes a task. The backend does not say which project the task belonged to, so only
// the caller's dashboard is cleared; other members catch up within the cache TTL.
func (s *TaskService) Delete(ctx context.Context, auth *models.AuthContext, id string) error {
	if err := s.repo.Delete(ctx, auth.UpstreamToken(), id); err != nil {
		return err
	}
	s.audience.touch(ctx, auth, "")
	return nil
}

// Tags lists the available tags.
func (s *TaskService) Tags(ctx context.Context, auth *models.AuthContext) ([]models.Tag, error) {
	return s.repo.Tags(ctx, auth.UpstreamToken())
}

// CreateTag stores a tag.
func (s *TaskService) CreateTag(ctx context.Context, auth *models.AuthContext, input models.TagInput) (*models.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.CreateTag(ctx, auth.UpstreamToken(), input)
}
