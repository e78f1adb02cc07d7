package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dunzo-api/api/swagger"
	"github.com/noah-isme/dunzo-api/internal/handler"
	"github.com/noah-isme/dunzo-api/internal/middleware"
	"github.com/noah-isme/dunzo-api/internal/service"
	"github.com/noah-isme/dunzo-api/pkg/config"
	"github.com/noah-isme/dunzo-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dunzo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dunzo-api/pkg/middleware/requestid"
)

type handlers struct {
	auth      *handler.AuthHandler
	calendar  *handler.CalendarHandler
	projects  *handler.ProjectHandler
	tasks     *handler.TaskHandler
	dashboard *handler.DashboardHandler
	settings  *handler.SettingsHandler
	metrics   *handler.MetricsHandler
	exports   *handler.ExportLinkHandler
}

const downloadsPath = "/downloads"

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, guard middleware.Authenticator, timezone string, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(timezone))

	auth := api.Group("/auth")
	auth.POST("/login", h.auth.Login)
	auth.POST("/register", h.auth.Register)
	api.GET(downloadsPath+"/:token", h.exports.Download)

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(logr, action, resource)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(guard))
	secured.POST("/auth/logout", h.auth.Logout)
	secured.GET("/auth/me", h.auth.Me)

	secured.GET("/calendar/events", h.calendar.List)
	secured.POST("/calendar/events", audit("create", "event"), h.calendar.Create)
	secured.GET("/calendar/events/:id", h.calendar.Get)
	secured.PUT("/calendar/events/:id", audit("update", "event"), h.calendar.Update)
	secured.DELETE("/calendar/events/:id", audit("delete", "event"), h.calendar.Delete)
	secured.GET("/calendar/defaults", h.calendar.Defaults)
	secured.GET("/calendar/export", h.calendar.Export)
	secured.POST("/calendar/export/link", audit("share", "calendar_export"), h.exports.Create)

	secured.GET("/projects", h.projects.List)
	secured.POST("/projects", audit("create", "project"), h.projects.Create)
	secured.GET("/projects/:id", h.projects.Get)
	secured.PUT("/projects/:id", audit("update", "project"), h.projects.Update)
	secured.DELETE("/projects/:id", audit("delete", "project"), h.projects.Delete)
	secured.GET("/projects/:id/members", h.projects.Members)
	secured.POST("/projects/:id/members", audit("add", "project_member"), h.projects.AddMember)
	secured.DELETE("/projects/:id/members/:userId", audit("remove", "project_member"), h.projects.RemoveMember)
	secured.GET("/projects/:id/timeline", h.projects.Timeline)
	secured.GET("/projects/:id/tasks", h.tasks.List)
	secured.POST("/projects/:id/tasks", audit("create", "task"), h.tasks.Create)

	secured.PUT("/tasks/:id", audit("update", "task"), h.tasks.Update)
	secured.DELETE("/tasks/:id", audit("delete", "task"), h.tasks.Delete)
	secured.GET("/tags", h.tasks.Tags)
	secured.POST("/tags", audit("create", "tag"), h.tasks.CreateTag)

	secured.GET("/dashboard", h.dashboard.Get)
	secured.GET("/settings", h.settings.Get)
	secured.PUT("/settings", audit("update", "settings"), h.settings.Update)
	secured.GET("/system/metrics", h.metrics.Snapshot)

	return r
}
