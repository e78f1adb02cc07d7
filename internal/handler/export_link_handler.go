package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

type exportLinkService interface {
	Create(ctx context.Context, auth *models.AuthContext, format models.ExportFormat, downloadPrefix string) (*models.ExportLink, error)
	Open(token string) (*models.ExportFile, error)
}

// ExportLinkHandler issues signed export links and serves them.
type ExportLinkHandler struct {
	service        exportLinkService
	downloadPrefix string
}

// NewExportLinkHandler constructs the handler. downloadPrefix is the public path the Download
// route is mounted on, ending in a slash.
func NewExportLinkHandler(svc exportLinkService, downloadPrefix string) *ExportLinkHandler {
	return &ExportLinkHandler{service: svc, downloadPrefix: downloadPrefix}
}

// Create godoc
// @Summary Create a calendar export link
// @Description Renders the calendar and returns a short-lived link usable without a bearer token
// @Tags Calendar
// @Produce json
// @Param format query string false "ics (default), csv or pdf"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/export/link [post]
func (h *ExportLinkHandler) Create(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	format := models.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	link, err := h.service.Create(c.Request.Context(), auth, format, h.downloadPrefix)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Download godoc
// @Summary Download an export
// @Tags Calendar
// @Produce octet-stream
// @Param token path string true "Signed link token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /downloads/{token} [get]
func (h *ExportLinkHandler) Download(c *gin.Context) {
	file, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file)
}
