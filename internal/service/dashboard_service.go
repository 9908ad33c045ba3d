package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
)

// DashboardRepository describes the aggregation queries behind the
// manager dashboard.
type DashboardRepository interface {
	UtilizationByUser(ctx context.Context, filter models.DashboardFilter) ([]models.UtilizationRow, error)
	EffortByProject(ctx context.Context, filter models.DashboardFilter) ([]models.ProjectEffortRow, error)
	StatusBreakdown(ctx context.Context, filter models.DashboardFilter) ([]models.StatusBreakdownRow, error)
}

// DashboardService provides read-optimised utilization summaries with
// cache integration.
type DashboardService struct {
	repo    DashboardRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(repo DashboardRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Summary returns the aggregated dashboard for the period. The boolean
// indicates whether the payload came from cache.
func (s *DashboardService) Summary(ctx context.Context, filter models.DashboardFilter) (*models.DashboardSummary, bool, error) {
	cacheKey := makeDashboardCacheKey(filter)
	var cached models.DashboardSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get dashboard cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	utilization, err := s.repo.UtilizationByUser(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	efforts, err := s.repo.EffortByProject(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	statuses, err := s.repo.StatusBreakdown(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("dashboard_summary", time.Since(start))
	}

	summary := &models.DashboardSummary{
		DateFrom:       filter.DateFrom,
		DateTo:         filter.DateTo,
		Utilization:    utilization,
		ProjectEfforts: efforts,
		Statuses:       statuses,
		GeneratedAt:    time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache dashboard summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops cached summaries after timesheet mutations.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil && s.logger != nil {
		s.logger.Warn("invalidate dashboard cache", zap.Error(err))
	}
}

func makeDashboardCacheKey(filter models.DashboardFilter) string {
	parts := []string{
		"dashboard",
		filter.ManagerID,
		filter.ProjectID,
		filter.DateFrom.Format(dto.DateLayout),
		filter.DateTo.Format(dto.DateLayout),
	}
	return strings.Join(parts, ":")
}
