package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
)

type dashboardRepository interface {
	DashboardSummary(ctx context.Context, token string) (*models.DashboardSummary, error)
}

type upcomingLister interface {
	Upcoming(auth *models.AuthContext, limit int) []models.CalendarEntry
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	UpcomingEventsLimit int
	Timezone            string
}

// DashboardService combines the backend's workload summary with upcoming events from the
// caller's calendar collection. Only the backend summary is cached.
type DashboardService struct {
	repo     dashboardRepository
	calendar upcomingLister
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with defaults.
func NewDashboardService(repo dashboardRepository, calendar upcomingLister, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.UpcomingEventsLimit <= 0 {
		cfg.UpcomingEventsLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, calendar: calendar, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Get returns the dashboard and whether the summary came from cache.
func (s *DashboardService) Get(ctx context.Context, auth *models.AuthContext) (*models.Dashboard, bool, error) {
	key := dashboardKey(auth.UserID())
	var summary models.DashboardSummary
	hit, err := s.cache.Get(ctx, key, &summary)
	if err != nil {
		hit = false
	}
	if !hit {
		fetched, err := s.repo.DashboardSummary(ctx, auth.UpstreamToken())
		if err != nil {
			return nil, false, err
		}
		summary = *fetched
		if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Debug("dashboard cache write skipped", zap.Error(err))
		}
	}

	dashboard := &models.Dashboard{
		ProjectCount:   summary.ProjectCount,
		TasksByStatus:  summary.TasksByStatus,
		UpcomingEvents: s.calendar.Upcoming(auth, s.cfg.UpcomingEventsLimit),
		Timezone:       s.cfg.Timezone,
		GeneratedAt:    s.now().UTC(),
	}
	if dashboard.TasksByStatus == nil {
		dashboard.TasksByStatus = map[models.TaskStatus]int{}
	}
	for status, count := range dashboard.TasksByStatus {
		if status != models.TaskStatusDone {
			dashboard.OpenTasks += count
		}
	}
	return dashboard, hit, nil
}

// Invalidate drops the cached summary of userID.
func (s *DashboardService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, dashboardKey(userID)); err != nil {
		s.logger.Debug("dashboard cache invalidate skipped", zap.String("user_id", userID), zap.Error(err))
	}
}

type memberLister interface {
	Members(ctx context.Context, token, projectID string) ([]models.ProjectMember, error)
}

// projectAudience clears cached dashboards for the actor and everyone on a project, so a write
// by one member is not hidden from the others until the cache TTL runs out.
type projectAudience struct {
	members   memberLister
	dashboard dashboardInvalidator
	logger    *zap.Logger
}

// collect returns the actor, extra and every member of projectID. A failed member lookup
// degrades to the actor and extra.
func (a projectAudience) collect(ctx context.Context, auth *models.AuthContext, projectID string, extra ...string) []string {
	ids := append([]string{auth.UserID()}, extra...)
	if projectID == "" || a.members == nil || a.dashboard == nil {
		return ids
	}
	members, err := a.members.Members(ctx, auth.UpstreamToken(), projectID)
	if err != nil {
		a.logger.Debug("project member lookup failed", zap.String("project_id", projectID), zap.Error(err))
		return ids
	}
	for _, member := range members {
		if member.UserID != "" {
			ids = append(ids, member.UserID)
		} else {
			ids = append(ids, member.Email)
		}
	}
	return ids
}

func (a projectAudience) invalidate(ctx context.Context, userIDs []string) {
	if a.dashboard == nil {
		return
	}
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		a.dashboard.Invalidate(ctx, id)
	}
}

func (a projectAudience) touch(ctx context.Context, auth *models.AuthContext, projectID string, extra ...string) {
	a.invalidate(ctx, a.collect(ctx, auth, projectID, extra...))
}

func dashboardKey(userID string) string {
	return fmt.Sprintf("dashboard:%s", userID)
}
