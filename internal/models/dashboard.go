package models

import "time"

// Dashboard aggregates the signed-in user's workload.
type Dashboard struct {
	ProjectCount   int                `json:"project_count"`
	TasksByStatus  map[TaskStatus]int `json:"tasks_by_status"`
	OpenTasks      int                `json:"open_tasks"`
	UpcomingEvents []CalendarEntry    `json:"upcoming_events"`
	Timezone       string             `json:"timezone"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// DashboardSummary is the aggregate reported by the backend.
type DashboardSummary struct {
	ProjectCount  int                `json:"project_count"`
	TasksByStatus map[TaskStatus]int `json:"tasks_by_status"`
}

// SystemMetrics is a lightweight snapshot of gateway counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	UpstreamCalls            uint64    `json:"upstream_calls"`
	ReconcileDropped         uint64    `json:"reconcile_dropped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
