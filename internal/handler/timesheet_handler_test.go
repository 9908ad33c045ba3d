package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timesheet-api/internal/middleware"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/repository"
	"github.com/worklane/timesheet-api/internal/service"
	"github.com/worklane/timesheet-api/pkg/config"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type fakeWriter struct {
	inserted []models.TimesheetEntry
	updated  []models.TimesheetEntry
	statuses map[string]models.TimesheetStatus
}

func (w *fakeWriter) Insert(_ context.Context, entry *models.TimesheetEntry) error {
	w.inserted = append(w.inserted, *entry)
	return nil
}

func (w *fakeWriter) Update(_ context.Context, entry *models.TimesheetEntry) error {
	w.updated = append(w.updated, *entry)
	return nil
}

func (w *fakeWriter) UpdateStatus(_ context.Context, id string, status models.TimesheetStatus, _ *string) error {
	if w.statuses == nil {
		w.statuses = make(map[string]models.TimesheetStatus)
	}
	w.statuses[id] = status
	return nil
}

type fakeTimesheetStore struct {
	entries []models.TimesheetEntry
	records []models.TimesheetRecord
	writer  fakeWriter
}

func (s *fakeTimesheetStore) ListInRange(_ context.Context, _ string, from, to time.Time) ([]models.TimesheetEntry, error) {
	var out []models.TimesheetEntry
	for _, e := range s.entries {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeTimesheetStore) ListForDate(_ context.Context, _ string, date time.Time) ([]models.TimesheetEntry, error) {
	var out []models.TimesheetEntry
	for _, e := range s.entries {
		if e.Date.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeTimesheetStore) ListByStatus(_ context.Context, _ string, status models.TimesheetStatus) ([]models.TimesheetEntry, error) {
	var out []models.TimesheetEntry
	for _, e := range s.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeTimesheetStore) ListRecords(_ context.Context, _ models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	return s.records, len(s.records), nil
}

func (s *fakeTimesheetStore) ListSubmittedByIDs(_ context.Context, _ []string) ([]models.TimesheetRecord, error) {
	return s.records, nil
}

func (s *fakeTimesheetStore) ListPendingForManager(_ context.Context, _ string, _ models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	return s.records, len(s.records), nil
}

func (s *fakeTimesheetStore) WithinTx(_ context.Context, fn func(tx repository.TimesheetWriter) error) error {
	return fn(&s.writer)
}

type fakeWindowStore struct {
	windows []repository.TaskWindow
}

func (s *fakeWindowStore) ListTaskWindows(_ context.Context, _ []string) ([]repository.TaskWindow, error) {
	return s.windows, nil
}

type fakeReporteeStore struct {
	reportees []models.User
}

func (s *fakeReporteeStore) ListReportees(_ context.Context, _ string) ([]models.User, error) {
	return s.reportees, nil
}

func yearWindow(taskID string) repository.TaskWindow {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	return repository.TaskWindow{
		TaskID: taskID, ProjectID: "prj-1", ProjectTitle: "Internal Tools",
		TaskStart: start, TaskEnd: end,
		ProjectStart: start, ProjectEnd: end,
	}
}

func newTimesheetTestHandler(store *fakeTimesheetStore, windows *fakeWindowStore) *TimesheetHandler {
	cfg := config.TimesheetConfig{DailyEffortsLimit: 8, WeeklyEffortsLimit: 40, FreezeDayOfMonth: 10}
	timesheets := service.NewTimesheetService(store, windows, nil, nil, cfg, nil)
	approvals := service.NewApprovalService(store, &fakeReporteeStore{}, nil, nil, nil, nil)
	return NewTimesheetHandler(timesheets, approvals, nil)
}

func authedRequest(method, target string, body []byte, claims *models.JWTClaims) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return rec, c
}

func TestTimesheetHandlerSaveRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimesheetTestHandler(&fakeTimesheetStore{}, &fakeWindowStore{})

	rec, c := authedRequest(http.MethodPost, "/timesheets/save", []byte(`{}`), nil)
	handler.Save(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTimesheetHandlerSaveSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeTimesheetStore{}
	handler := newTimesheetTestHandler(store, &fakeWindowStore{windows: []repository.TaskWindow{yearWindow("task-1")}})

	body := []byte(`{
		"client_date": "2025-06-15",
		"entries": [
			{"date": "2025-06-11", "efforts": [{"task_id": "task-1", "hours": 6}]},
			{"date": "2025-05-02", "efforts": [{"task_id": "task-1", "hours": 4}]}
		]
	}`)
	rec, c := authedRequest(http.MethodPost, "/timesheets/save", body, &models.JWTClaims{UserID: "usr-1"})
	handler.Save(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, []interface{}{"2025-06-11"}, envelope.Data["saved"])
	skipped, ok := envelope.Data["skipped"].([]interface{})
	require.True(t, ok)
	require.Len(t, skipped, 1)
	require.Len(t, store.writer.inserted, 1)
	assert.Equal(t, "usr-1", store.writer.inserted[0].UserID)
}

func TestTimesheetHandlerSaveRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimesheetTestHandler(&fakeTimesheetStore{}, &fakeWindowStore{})

	rec, c := authedRequest(http.MethodPost, "/timesheets/save", []byte(`{"client_date":`), &models.JWTClaims{UserID: "usr-1"})
	handler.Save(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimesheetHandlerSubmitNothingLeft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimesheetTestHandler(&fakeTimesheetStore{}, &fakeWindowStore{})

	rec, c := authedRequest(http.MethodPost, "/timesheets/submit", []byte(`{"client_date":"2025-06-15"}`), &models.JWTClaims{UserID: "usr-1"})
	handler.Submit(c)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "NOTHING_TO_SUBMIT", envelope.Error["code"])
}

func TestTimesheetHandlerListReturnsPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeTimesheetStore{records: []models.TimesheetRecord{{
		TimesheetEntry: models.TimesheetEntry{ID: "ts-1", UserID: "usr-1", TaskID: "task-1",
			Date: time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC), Hours: 8,
			Status: models.TimesheetStatusSaved},
		TaskTitle: "API work", ProjectID: "prj-1", ProjectTitle: "Internal Tools",
	}}}
	handler := newTimesheetTestHandler(store, &fakeWindowStore{})

	rec, c := authedRequest(http.MethodGet, "/timesheets?page=2&page_size=10", nil, &models.JWTClaims{UserID: "usr-1"})
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, float64(2), envelope.Pagination["page"])
	assert.Equal(t, float64(10), envelope.Pagination["page_size"])
	assert.Equal(t, float64(1), envelope.Pagination["total_count"])
}

func TestTimesheetHandlerExportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimesheetTestHandler(&fakeTimesheetStore{}, &fakeWindowStore{})

	rec, c := authedRequest(http.MethodGet, "/timesheets/export?format=csv", nil, &models.JWTClaims{UserID: "usr-1"})
	handler.Export(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
