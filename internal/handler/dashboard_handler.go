package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/service"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
	"github.com/worklane/timesheet-api/pkg/response"
)

// DashboardHandler exposes the utilization dashboard.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Utilization dashboard
// @Description Aggregated hours per user and project for a period
// @Tags Dashboard
// @Produce json
// @Param date_from query string false "Range start"
// @Param date_to query string false "Range end"
// @Param project_id query string false "Project filter"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	from := queryDate(c, "date_from")
	to := queryDate(c, "date_to")
	if from == nil || to == nil {
		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, -1)
		from, to = &monthStart, &monthEnd
	}

	filter := models.DashboardFilter{
		ProjectID: c.Query("project_id"),
		DateFrom:  *from,
		DateTo:    *to,
	}
	// Managers see their reportees only; admins see everything.
	if claims.Role == models.RoleManager {
		filter.ManagerID = claims.UserID
	}

	summary, fromCache, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": fromCache})
}
