package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context, auth *models.AuthContext) (*models.UserSettings, error)
	Update(ctx context.Context, auth *models.AuthContext, input models.UpdateSettingsRequest) (*models.UserSettings, error)
}

// SettingsHandler exposes the account settings page.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(svc settingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// Get godoc
// @Summary Account settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	settings, err := h.service.Get(c.Request.Context(), auth)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update account settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.UpdateSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var input models.UpdateSettingsRequest
	if !bindJSON(c, &input, "invalid settings payload") {
		return
	}
	settings, err := h.service.Update(c.Request.Context(), auth, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
