package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/middleware"
	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

type dashboardService interface {
	Get(ctx context.Context, auth *models.AuthContext) (*models.Dashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Workload summary
// @Description Project and task counts with the next upcoming events
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	dashboard, cacheHit, err := h.service.Get(c.Request.Context(), auth)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.ExtractMeta(c))
}
