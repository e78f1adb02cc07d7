package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/handler"
	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/service"
	"github.com/noah-isme/dunzo-api/pkg/config"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, string) (*models.AuthContext, error) {
	return nil, appErrors.ErrUnauthorized
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1", Docs: config.DocsConfig{Enabled: true}}
	conv, err := zonedtime.NewConverter("Asia/Manila", zonedtime.DisambiguateCompatible)
	require.NoError(t, err)
	metrics := service.NewMetricsService()
	return newRouter(cfg, zap.NewNop(), metrics, rejectAll{}, "Asia/Manila", handlers{
		auth:      handler.NewAuthHandler(nil),
		calendar:  handler.NewCalendarHandler(nil, conv),
		projects:  handler.NewProjectHandler(nil),
		tasks:     handler.NewTaskHandler(nil),
		dashboard: handler.NewDashboardHandler(nil),
		settings:  handler.NewSettingsHandler(nil),
		metrics:   handler.NewMetricsHandler(metrics),
		exports:   handler.NewExportLinkHandler(nil, "/api/v1/downloads/"),
	})
}

func TestRouterPublicEndpoints(t *testing.T) {
	r := testRouter(t)
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterGuardsSecuredRoutes(t *testing.T) {
	r := testRouter(t)
	for _, path := range []string{"/api/v1/calendar/events", "/api/v1/dashboard", "/api/v1/projects", "/api/v1/auth/me"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer whatever")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestPrintConversion(t *testing.T) {
	conv, err := zonedtime.NewConverter("America/New_York", zonedtime.DisambiguateLater)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printConversion(&out, conv, "2025-01-15T09:30"))
	assert.Contains(t, out.String(), "Instant: 2025-01-15T14:30:00Z")
	assert.Contains(t, out.String(), "Form:    2025-01-15T09:30")

	require.Error(t, printConversion(&out, conv, "yesterday"))
}
