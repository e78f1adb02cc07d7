package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

type projectService interface {
	List(ctx context.Context, auth *models.AuthContext) ([]models.Project, error)
	Get(ctx context.Context, auth *models.AuthContext, id string) (*models.Project, error)
	Create(ctx context.Context, auth *models.AuthContext, input models.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, auth *models.AuthContext, id string, input models.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, auth *models.AuthContext, id string) error
	Members(ctx context.Context, auth *models.AuthContext, projectID string) ([]models.ProjectMember, error)
	AddMember(ctx context.Context, auth *models.AuthContext, projectID string, input models.AddMemberInput) error
	RemoveMember(ctx context.Context, auth *models.AuthContext, projectID, userID string) error
	Timeline(ctx context.Context, auth *models.AuthContext, projectID string) ([]models.TimelineEntry, error)
}

// ProjectHandler exposes project CRUD, membership and the activity timeline.
type ProjectHandler struct {
	service projectService
}

// NewProjectHandler constructs a project handler.
func NewProjectHandler(svc projectService) *ProjectHandler {
	return &ProjectHandler{service: svc}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	projects, err := h.service.List(c.Request.Context(), auth)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, nil)
}

// Get godoc
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	project, err := h.service.Get(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body models.ProjectInput true "Project"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.ProjectInput
	if !bindJSON(c, &input, "invalid project payload") {
		return
	}
	project, err := h.service.Create(c.Request.Context(), auth, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update godoc
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body models.ProjectInput true "Project"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.ProjectInput
	if !bindJSON(c, &input, "invalid project payload") {
		return
	}
	project, err := h.service.Update(c.Request.Context(), auth, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Delete godoc
// @Summary Delete project
// @Tags Projects
// @Param id path string true "Project ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
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

// Members godoc
// @Summary List project members
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/members [get]
func (h *ProjectHandler) Members(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	members, err := h.service.Members(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// AddMember godoc
// @Summary Invite a member
// @Tags Projects
// @Accept json
// @Param id path string true "Project ID"
// @Param payload body models.AddMemberInput true "Member"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/members [post]
func (h *ProjectHandler) AddMember(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.AddMemberInput
	if !bindJSON(c, &input, "invalid member payload") {
		return
	}
	if err := h.service.AddMember(c.Request.Context(), auth, c.Param("id"), input); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove a member
// @Tags Projects
// @Param id path string true "Project ID"
// @Param userId path string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), auth, c.Param("id"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Timeline godoc
// @Summary Project activity
// @Description Activity entries newest first, with local times in the calendar zone
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/timeline [get]
func (h *ProjectHandler) Timeline(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	entries, err := h.service.Timeline(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
