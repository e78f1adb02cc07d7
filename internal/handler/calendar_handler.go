package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/middleware"
	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/validation"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/response"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

type calendarService interface {
	Refresh(ctx context.Context, auth *models.AuthContext, filter models.EventFilter) (*models.CalendarView, error)
	Get(ctx context.Context, auth *models.AuthContext, id string) (*models.CalendarEntry, error)
	Create(ctx context.Context, auth *models.AuthContext, in validation.EventInput) (*models.CalendarEntry, error)
	Update(ctx context.Context, auth *models.AuthContext, id string, in validation.EventInput) (*models.CalendarEntry, error)
	Delete(ctx context.Context, auth *models.AuthContext, id string) error
	Defaults() models.EventDefaults
	Export(ctx context.Context, auth *models.AuthContext, format models.ExportFormat) (*models.ExportFile, error)
}

// CalendarHandler serves the signed-in user's calendar.
type CalendarHandler struct {
	service calendarService
	conv    *zonedtime.Converter
}

// NewCalendarHandler constructs the handler. conv interprets date filters in the calendar zone.
func NewCalendarHandler(svc calendarService, conv *zonedtime.Converter) *CalendarHandler {
	return &CalendarHandler{service: svc, conv: conv}
}

// List godoc
// @Summary List calendar events
// @Description Fetches events from the backend and reconciles them into the caller's calendar
// @Tags Calendar
// @Produce json
// @Param project_id query string false "Project filter"
// @Param kind query string false "normal, meeting or deadline"
// @Param start_date query string false "YYYY-MM-DD or instant"
// @Param end_date query string false "YYYY-MM-DD (inclusive) or instant"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events [get]
func (h *CalendarHandler) List(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.Refresh(c.Request.Context(), auth, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "stale", view.Stale)
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a calendar event
// @Tags Calendar
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events/{id} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body validation.EventInput true "Event"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var in validation.EventInput
	if !bindJSON(c, &in, "invalid event payload") {
		return
	}
	entry, err := h.service.Create(c.Request.Context(), auth, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Update a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body validation.EventInput true "Event"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	var in validation.EventInput
	if !bindJSON(c, &in, "invalid event payload") {
		return
	}
	entry, err := h.service.Update(c.Request.Context(), auth, c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete a calendar event
// @Tags Calendar
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
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

// Defaults godoc
// @Summary New event defaults
// @Description Start and end pre-filled for a new event form, in the calendar zone
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/defaults [get]
func (h *CalendarHandler) Defaults(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Defaults(), nil)
}

// Export godoc
// @Summary Export the calendar
// @Tags Calendar
// @Produce octet-stream
// @Param format query string false "ics (default), csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	auth, ok := authFromContext(c)
	if !ok {
		return
	}
	format := models.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	file, err := h.service.Export(c.Request.Context(), auth, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file)
}

func (h *CalendarHandler) filterFromQuery(c *gin.Context) (models.EventFilter, error) {
	filter := models.EventFilter{ProjectID: strings.TrimSpace(c.Query("project_id"))}

	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		kind := models.EventKind(strings.ToLower(raw))
		if !kind.Valid() {
			err := appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown event kind %q", raw))
			err.Field = "kind"
			return filter, err
		}
		filter.Kind = kind
	}

	from, err := h.boundary(c.Query("start_date"), false)
	if err != nil {
		return filter, fieldError(err, "start_date")
	}
	to, err := h.boundary(c.Query("end_date"), true)
	if err != nil {
		return filter, fieldError(err, "end_date")
	}
	if from != nil && to != nil && to.Before(from.Time) {
		err := appErrors.Clone(appErrors.ErrInvalidRange, "end_date must not be before start_date")
		err.Field = "end_date"
		return filter, err
	}
	filter.From = from
	filter.To = to
	return filter, nil
}

// boundary reads a date or instant filter. A plain end date covers the whole day.
func (h *CalendarHandler) boundary(raw string, end bool) (*zonedtime.Instant, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	instant, err := h.conv.ParseBound(raw, end)
	if err != nil {
		return nil, err
	}
	return &instant, nil
}

func fieldError(err error, field string) error {
	appErr := appErrors.Clone(appErrors.FromError(err), "")
	appErr.Field = field
	return appErr
}
