package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/calendar"
	"github.com/noah-isme/dunzo-api/internal/handler"
	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/repository"
	"github.com/noah-isme/dunzo-api/internal/service"
	"github.com/noah-isme/dunzo-api/internal/validation"
	"github.com/noah-isme/dunzo-api/pkg/cache"
	"github.com/noah-isme/dunzo-api/pkg/config"
	"github.com/noah-isme/dunzo-api/pkg/export"
	"github.com/noah-isme/dunzo-api/pkg/jobs"
	"github.com/noah-isme/dunzo-api/pkg/logger"
	"github.com/noah-isme/dunzo-api/pkg/storage"
	"github.com/noah-isme/dunzo-api/pkg/upstream"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

const (
	shutdownTimeout    = 15 * time.Second
	jobTimeout         = 30 * time.Second
	upcomingLimit      = 5
	sessionPruneEvery  = "@every 5m"
	exportCleanupEvery = "@every 5m"
)

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	conv, err := zonedtime.NewConverter(cfg.Calendar.Timezone, cfg.Calendar.DSTPolicy)
	if err != nil {
		return fmt.Errorf("calendar zone: %w", err)
	}

	metricsSvc := service.NewMetricsService()
	client, err := upstream.New(upstream.Config{BaseURL: cfg.Upstream.BaseURL, Timeout: cfg.Upstream.Timeout}, nil, metricsSvc, logr)
	if err != nil {
		return err
	}

	scheduler := jobs.NewScheduler(logr, jobTimeout)
	rdb := connectRedis(cfg, logr)
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck
	}

	var sessions sessionStore
	if rdb != nil {
		sessions = repository.NewRedisSessionRepository(rdb)
	} else {
		memory := repository.NewMemorySessionRepository()
		sessions = memory
		if err := scheduler.Add("session-prune", sessionPruneEvery, func(context.Context) error {
			if n := memory.Prune(time.Now()); n > 0 {
				logr.Debug("pruned expired sessions", zap.Int("count", n))
			}
			return nil
		}); err != nil {
			return err
		}
	}

	cacheRepo := repository.NewCacheRepository(rdb, cache.KeyPrefix, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && rdb != nil)

	validate := validation.New(conv, cfg.Calendar.PastGrace)
	registry := calendar.NewRegistry()

	accounts := repository.NewAccountRepository(client)
	events := repository.NewEventRepository(client, logr)
	projects := repository.NewProjectRepository(client, conv)
	tasks := repository.NewTaskRepository(client, conv)

	calendarSvc := service.NewCalendarService(events, registry, conv, validate, service.CalendarExporters{
		ICS: export.NewICSExporter("-//Dunzo//Calendar//EN"),
		CSV: export.NewCSVExporter(),
		PDF: export.NewPDFExporter(),
	}, metricsSvc, logr)
	dashboardSvc := service.NewDashboardService(accounts, calendarSvc, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL:            cfg.Dashboard.CacheTTL,
		UpcomingEventsLimit: upcomingLimit,
		Timezone:            conv.Location().String(),
	})
	authSvc := service.NewAuthService(accounts, sessions, registry, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "dunzo-api",
	})
	projectSvc := service.NewProjectService(projects, validate, dashboardSvc, logr)
	taskSvc := service.NewTaskService(tasks, projects, validate, dashboardSvc, logr)
	settingsSvc := service.NewSettingsService(accounts, validate, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		return err
	}
	exportLinkSvc := service.NewExportLinkService(calendarSvc, exportStore, storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL), logr)
	if err := scheduler.Add("export-cleanup", exportCleanupEvery, exportLinkSvc.Cleanup); err != nil {
		return err
	}

	if err := scheduler.Add("calendar-evict", cfg.Calendar.EvictSchedule, func(context.Context) error {
		calendarSvc.EvictIdle(cfg.Calendar.IdleTTL)
		return nil
	}); err != nil {
		return err
	}

	router := newRouter(cfg, logr, metricsSvc, authSvc, conv.Location().String(), handlers{
		auth:      handler.NewAuthHandler(authSvc),
		calendar:  handler.NewCalendarHandler(calendarSvc, conv),
		projects:  handler.NewProjectHandler(projectSvc),
		tasks:     handler.NewTaskHandler(taskSvc),
		dashboard: handler.NewDashboardHandler(dashboardSvc),
		settings:  handler.NewSettingsHandler(settingsSvc),
		metrics:   handler.NewMetricsHandler(metricsSvc),
		exports:   handler.NewExportLinkHandler(exportLinkSvc, cfg.APIPrefix+downloadsPath+"/"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler.Start()
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("upstream", cfg.Upstream.BaseURL), zap.String("timezone", conv.Location().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			logr.Error("server failed", zap.Error(err))
			scheduler.Stop(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

// connectRedis returns nil when Redis is not configured or unreachable; sessions then live in
// memory and dashboard caching is off.
func connectRedis(cfg *config.Config, logr *zap.Logger) *redis.Client {
	client, err := cache.Connect(context.Background(), cfg.Redis)
	if errors.Is(err, cache.ErrDisabled) {
		logr.Info("redis not configured, using in-memory sessions")
		return nil
	}
	if err != nil {
		logr.Warn("redis unavailable, using in-memory sessions", zap.String("host", cfg.Redis.Host), zap.Error(err))
		return nil
	}
	return client
}
