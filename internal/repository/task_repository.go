package repository

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// TaskRepository reads and writes tasks and tags on the backend.
type TaskRepository struct {
	client upstreamClient
	conv   *zonedtime.Converter
}

// NewTaskRepository constructs a task repository.
func NewTaskRepository(client upstreamClient, conv *zonedtime.Converter) *TaskRepository {
	return &TaskRepository{client: client, conv: conv}
}

type taskListResponse struct {
	Tasks []rawTask `json:"tasks"`
	Data  []rawTask `json:"data"`
}

type taskResponse struct {
	Task *rawTask `json:"task"`
	Data *rawTask `json:"data"`
}

type tagListResponse struct {
	Tags []rawTag `json:"tags"`
	Data []rawTag `json:"data"`
}

type tagResponse struct {
	Tag  *rawTag `json:"tag"`
	Data *rawTag `json:"data"`
}

// taskWrite is the backend payload for task create and update.
type taskWrite struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`
	AssigneeID  *string  `json:"assignee_id,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func newTaskWrite(input models.TaskInput) taskWrite {
	write := taskWrite{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      input.Status,
		AssigneeID:  input.AssigneeID,
		Tags:        input.Tags,
	}
	if due := strings.TrimSpace(input.DueDate); due != "" {
		write.DueDate = &due
	}
	return write
}

// List returns the tasks of a project, filtered client-side by status and tag.
func (r *TaskRepository) List(ctx context.Context, token string, filter models.TaskFilter) ([]models.Task, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	var out taskListResponse
	if err := r.client.Do(ctx, http.MethodGet, pathOf("projects", filter.ProjectID, "tasks"), token, query, nil, &out); err != nil {
		return nil, err
	}
	raws := pick(out.Tasks, out.Data)
	tasks := make([]models.Task, 0, len(raws))
	for _, raw := range raws {
		task := normalizeTask(raw, r.conv)
		if task.ProjectID == "" {
			task.ProjectID = filter.ProjectID
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Tag != "" && !hasTag(task, filter.Tag) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Create stores a new task in a project.
func (r *TaskRepository) Create(ctx context.Context, token, projectID string, input models.TaskInput) (*models.Task, error) {
	var out taskResponse
	if err := r.client.Do(ctx, http.MethodPost, pathOf("projects", projectID, "tasks"), token, nil, newTaskWrite(input), &out); err != nil {
		return nil, err
	}
	return r.single(out, "", projectID, input), nil
}

// Update changes a task.
func (r *TaskRepository) Update(ctx context.Context, token, id string, input models.TaskInput) (*models.Task, error) {
	var out taskResponse
	if err := r.client.Do(ctx, http.MethodPut, pathOf("tasks", id), token, nil, newTaskWrite(input), &out); err != nil {
		return nil, err
	}
	return r.single(out, id, "", input), nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, token, id string) error {
	return r.client.Do(ctx, http.MethodDelete, pathOf("tasks", id), token, nil, nil, nil)
}

// Tags lists the available tags.
func (r *TaskRepository) Tags(ctx context.Context, token string) ([]models.Tag, error) {
	var out tagListResponse
	if err := r.client.Do(ctx, http.MethodGet, "/tags", token, nil, nil, &out); err != nil {
		return nil, err
	}
	raws := pick(out.Tags, out.Data)
	tags := make([]models.Tag, 0, len(raws))
	for _, raw := range raws {
		tags = append(tags, normalizeTag(raw))
	}
	return tags, nil
}

// CreateTag stores a new tag.
func (r *TaskRepository) CreateTag(ctx context.Context, token string, input models.TagInput) (*models.Tag, error) {
	var out tagResponse
	if err := r.client.Do(ctx, http.MethodPost, "/tags", token, nil, input, &out); err != nil {
		return nil, err
	}
	tag := models.Tag{Name: input.Name, Color: input.Color}
	if raw := pickOne(out.Tag, out.Data); raw != nil {
		tag = normalizeTag(*raw)
	}
	return &tag, nil
}

func (r *TaskRepository) single(out taskResponse, id, projectID string, input models.TaskInput) *models.Task {
	raw := pickOne(out.Task, out.Data)
	if raw == nil {
		task := normalizeTask(rawTask{
			ID:          flexString(id),
			ProjectID:   flexString(projectID),
			Title:       flexString(input.Title),
			Description: flexString(input.Description),
			Status:      flexString(input.Status),
			DueDate:     flexString(input.DueDate),
		}, r.conv)
		task.AssigneeID = input.AssigneeID
		task.Tags = append(task.Tags, input.Tags...)
		return &task
	}
	task := normalizeTask(*raw, r.conv)
	if task.ID == "" {
		task.ID = id
	}
	if task.ProjectID == "" {
		task.ProjectID = projectID
	}
	return &task
}

func hasTag(task models.Task, tag string) bool {
	for _, t := range task.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
