package models

import "time"

// UtilizationRow aggregates one user's logged hours over a period.
type UtilizationRow struct {
	UserID        string `db:"user_id" json:"user_id"`
	FullName      string `db:"full_name" json:"full_name"`
	TotalHours    int    `db:"total_hours" json:"total_hours"`
	ApprovedHours int    `db:"approved_hours" json:"approved_hours"`
	PendingHours  int    `db:"pending_hours" json:"pending_hours"`
	RejectedHours int    `db:"rejected_hours" json:"rejected_hours"`
}

// ProjectEffortRow aggregates hours booked against one project.
type ProjectEffortRow struct {
	ProjectID    string `db:"project_id" json:"project_id"`
	ProjectTitle string `db:"project_title" json:"project_title"`
	TotalHours   int    `db:"total_hours" json:"total_hours"`
	MemberCount  int    `db:"member_count" json:"member_count"`
}

// StatusBreakdownRow counts entries per lifecycle status.
type StatusBreakdownRow struct {
	Status TimesheetStatus `db:"status" json:"status"`
	Count  int             `db:"count" json:"count"`
	Hours  int             `db:"hours" json:"hours"`
}

// DashboardSummary bundles the aggregates a manager sees.
type DashboardSummary struct {
	DateFrom       time.Time            `json:"date_from"`
	DateTo         time.Time            `json:"date_to"`
	Utilization    []UtilizationRow     `json:"utilization"`
	ProjectEfforts []ProjectEffortRow   `json:"project_efforts"`
	Statuses       []StatusBreakdownRow `json:"statuses"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// DashboardFilter scopes dashboard aggregation queries.
type DashboardFilter struct {
	ManagerID string
	ProjectID string
	DateFrom  time.Time
	DateTo    time.Time
}

// SystemMetrics is a lightweight runtime snapshot for the ops surface.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	EntriesSaved             uint64    `json:"entries_saved"`
	DatesSkipped             uint64    `json:"dates_skipped"`
	EntriesReviewed          uint64    `json:"entries_reviewed"`
	CardsSent                uint64    `json:"cards_sent"`
	CardsFailed              uint64    `json:"cards_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
