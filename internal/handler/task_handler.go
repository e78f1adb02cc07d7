package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

type taskService interface {
	List(ctx context.Context, auth *models.AuthContext, filter models.TaskFilter) ([]models.Task, error)
	Create(ctx context.Context, auth *models.AuthContext, projectID string, input models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, auth *models.AuthContext, id string, input models.TaskInput) (*models.Task, error)
	Delete(ctx context.Context, auth *models.AuthContext, id string) error
	Tags(ctx context.Context, auth *models.AuthContext) ([]models.Tag, error)
	CreateTag(ctx context.Context, auth *models.AuthContext, input models.TagInput) (*models.Tag, error)
}

// TaskHandler exposes tasks and tags.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs a task handler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List project tasks
// @Tags Tasks
// @Produce json
// @Param id path string true "Project ID"
// @Param status query string false "todo, in_progress or done"
// @Param tag query string false "Tag name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	filter := models.TaskFilter{
		ProjectID: c.Param("id"),
		Status:    models.TaskStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Tag:       strings.TrimSpace(c.Query("tag")),
	}
	tasks, err := h.service.List(c.Request.Context(), auth, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body models.TaskInput true "Task"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.TaskInput
	if !bindJSON(c, &input, "invalid task payload") {
		return
	}
	task, err := h.service.Create(c.Request.Context(), auth, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update godoc
// @Summary Update task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body models.TaskInput true "Task"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.TaskInput
	if !bindJSON(c, &input, "invalid task payload") {
		return
	}
	task, err := h.service.Update(c.Request.Context(), auth, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), auth, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Tags godoc
// @Summary List tags
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tags [get]
func (h *TaskHandler) Tags(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	tags, err := h.service.Tags(c.Request.Context(), auth)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tags, nil)
}

// CreateTag godoc
// @Summary Create tag
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body models.TagInput true "Tag"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /tags [post]
func (h *TaskHandler) CreateTag(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.TagInput
	if !bindJSON(c, &input, "invalid tag payload") {
		return
	}
	tag, err := h.service.CreateTag(c.Request.Context(), auth, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tag)
}
