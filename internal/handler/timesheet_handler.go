package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/service"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
	"github.com/worklane/timesheet-api/pkg/response"
)

// TimesheetHandler wires HTTP endpoints to the timesheet and approval
// services.
type TimesheetHandler struct {
	timesheets *service.TimesheetService
	approvals  *service.ApprovalService
	exports    *service.ExportService
}

// NewTimesheetHandler creates a new handler.
func NewTimesheetHandler(timesheets *service.TimesheetService, approvals *service.ApprovalService, exports *service.ExportService) *TimesheetHandler {
	return &TimesheetHandler{timesheets: timesheets, approvals: approvals, exports: exports}
}

// Save godoc
// @Summary Save draft efforts
// @Description Store a batch of efforts; frozen or limit-breaking dates are skipped per date
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimesheetRequest true "Save payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timesheets/save [post]
func (h *TimesheetHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SaveTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}

	res, err := h.timesheets.Save(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Submit godoc
// @Summary Submit saved efforts
// @Description Move all still-open saved efforts to submitted
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param payload body dto.SubmitTimesheetRequest true "Submit payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timesheets/submit [post]
func (h *TimesheetHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}

	res, err := h.timesheets.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Duplicate godoc
// @Summary Duplicate one date's efforts onto other dates
// @Description Copy the source date's efforts to target dates, skipping frozen or over-limit targets
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param payload body dto.DuplicateEffortsRequest true "Duplicate payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timesheets/duplicate [post]
func (h *TimesheetHandler) Duplicate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.DuplicateEffortsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid duplicate payload"))
		return
	}

	res, err := h.timesheets.Duplicate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List own timesheet entries
// @Tags Timesheets
// @Produce json
// @Param date_from query string false "Start date"
// @Param date_to query string false "End date"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := h.buildFilter(c)
	filter.UserID = claims.UserID

	records, total, err := h.timesheets.ListRecords(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Pending godoc
// @Summary List submitted entries awaiting the manager
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timesheets/pending [get]
func (h *TimesheetHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := h.buildFilter(c)
	records, total, err := h.approvals.ListPending(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Review godoc
// @Summary Review submitted entries
// @Description Apply a batch of approve/reject decisions atomically
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body dto.ReviewTimesheetRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timesheets/review [post]
func (h *TimesheetHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	res, err := h.approvals.Review(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export own entries as CSV or PDF
// @Tags Timesheets
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /timesheets/export [get]
func (h *TimesheetHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}

	filter := h.buildFilter(c)
	filter.UserID = claims.UserID

	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	result, err := h.exports.TimesheetReport(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Download(c, result.FileName, result.ContentType, result.Data)
}

func (h *TimesheetHandler) buildFilter(c *gin.Context) models.TimesheetFilter {
	filter := models.TimesheetFilter{
		ProjectID: c.Query("project_id"),
		TaskID:    c.Query("task_id"),
		DateFrom:  queryDate(c, "date_from"),
		DateTo:    queryDate(c, "date_to"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 50),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TimesheetStatus(raw)
		if status.Valid() {
			filter.Status = &status
		}
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = userID
	}
	return filter
}
