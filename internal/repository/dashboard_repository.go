package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/worklane/timesheet-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the manager
// dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func dashboardScope(filter models.DashboardFilter) (string, []interface{}) {
	where := []string{"t.date >= $1", "t.date <= $2"}
	args := []interface{}{filter.DateFrom, filter.DateTo}
	if filter.ManagerID != "" {
		where = append(where, fmt.Sprintf("u.manager_id = $%d", len(args)+1))
		args = append(args, filter.ManagerID)
	}
	if filter.ProjectID != "" {
		where = append(where, fmt.Sprintf("p.id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	return strings.Join(where, " AND "), args
}

// UtilizationByUser aggregates hours per user, split by status.
func (r *DashboardRepository) UtilizationByUser(ctx context.Context, filter models.DashboardFilter) ([]models.UtilizationRow, error) {
	whereClause, args := dashboardScope(filter)
	query := fmt.Sprintf(`SELECT u.id AS user_id, u.full_name,
	COALESCE(SUM(t.hours), 0) AS total_hours,
	COALESCE(SUM(t.hours) FILTER (WHERE t.status = 'APPROVED'), 0) AS approved_hours,
	COALESCE(SUM(t.hours) FILTER (WHERE t.status IN ('SAVED', 'SUBMITTED')), 0) AS pending_hours,
	COALESCE(SUM(t.hours) FILTER (WHERE t.status = 'REJECTED'), 0) AS rejected_hours
FROM timesheets t
JOIN users u ON u.id = t.user_id
JOIN tasks tk ON tk.id = t.task_id
JOIN projects p ON p.id = tk.project_id
WHERE %s
GROUP BY u.id, u.full_name
ORDER BY total_hours DESC`, whereClause)

	var rows []models.UtilizationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("utilization by user: %w", err)
	}
	return rows, nil
}

// EffortByProject aggregates hours per project.
func (r *DashboardRepository) EffortByProject(ctx context.Context, filter models.DashboardFilter) ([]models.ProjectEffortRow, error) {
	whereClause, args := dashboardScope(filter)
	query := fmt.Sprintf(`SELECT p.id AS project_id, p.title AS project_title,
	COALESCE(SUM(t.hours), 0) AS total_hours,
	COUNT(DISTINCT t.user_id) AS member_count
FROM timesheets t
JOIN users u ON u.id = t.user_id
JOIN tasks tk ON tk.id = t.task_id
JOIN projects p ON p.id = tk.project_id
WHERE %s
GROUP BY p.id, p.title
ORDER BY total_hours DESC`, whereClause)

	var rows []models.ProjectEffortRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("effort by project: %w", err)
	}
	return rows, nil
}

// StatusBreakdown counts entries and hours per lifecycle status.
func (r *DashboardRepository) StatusBreakdown(ctx context.Context, filter models.DashboardFilter) ([]models.StatusBreakdownRow, error) {
	whereClause, args := dashboardScope(filter)
	query := fmt.Sprintf(`SELECT t.status, COUNT(*) AS count, COALESCE(SUM(t.hours), 0) AS hours
FROM timesheets t
JOIN users u ON u.id = t.user_id
JOIN tasks tk ON tk.id = t.task_id
JOIN projects p ON p.id = tk.project_id
WHERE %s
GROUP BY t.status
ORDER BY t.status`, whereClause)

	var rows []models.StatusBreakdownRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	return rows, nil
}
