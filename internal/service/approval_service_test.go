package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/repository"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
)

type stubApprovalStore struct {
	submitted []models.TimesheetRecord
	writer    fakeTimesheetWriter
	comments  map[string]*string
	txCalls   int
}

func (s *stubApprovalStore) ListSubmittedByIDs(_ context.Context, ids []string) ([]models.TimesheetRecord, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.TimesheetRecord
	for _, record := range s.submitted {
		if _, ok := wanted[record.ID]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubApprovalStore) ListPendingForManager(_ context.Context, _ string, _ models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	return s.submitted, len(s.submitted), nil
}

func (s *stubApprovalStore) WithinTx(_ context.Context, fn func(tx repository.TimesheetWriter) error) error {
	s.txCalls++
	return fn(&commentCapturingWriter{inner: &s.writer, store: s})
}

// commentCapturingWriter records the manager comments passed with each
// status update, which the shared fake writer does not keep.
type commentCapturingWriter struct {
	inner *fakeTimesheetWriter
	store *stubApprovalStore
}

func (w *commentCapturingWriter) Insert(ctx context.Context, entry *models.TimesheetEntry) error {
	return w.inner.Insert(ctx, entry)
}

func (w *commentCapturingWriter) Update(ctx context.Context, entry *models.TimesheetEntry) error {
	return w.inner.Update(ctx, entry)
}

func (w *commentCapturingWriter) UpdateStatus(ctx context.Context, id string, status models.TimesheetStatus, managerComments *string) error {
	if w.store.comments == nil {
		w.store.comments = make(map[string]*string)
	}
	w.store.comments[id] = managerComments
	return w.inner.UpdateStatus(ctx, id, status, managerComments)
}

type stubReporteeStore struct {
	reportees []models.User
}

func (s *stubReporteeStore) ListReportees(_ context.Context, _ string) ([]models.User, error) {
	return s.reportees, nil
}

type capturingNotifier struct {
	entries []models.TimesheetRecord
	calls   int
}

func (n *capturingNotifier) NotifyReviewed(_ context.Context, entries []models.TimesheetRecord) {
	n.calls++
	n.entries = append(n.entries, entries...)
}

func submittedRecord(id, userID string, date time.Time) models.TimesheetRecord {
	return models.TimesheetRecord{
		TimesheetEntry: models.TimesheetEntry{
			ID: id, UserID: userID, TaskID: "t1",
			Date: date, Hours: 8,
			Status: models.TimesheetStatusSubmitted,
		},
		ProjectID:    "p1",
		ProjectTitle: "Project One",
	}
}

func newTestApprovalService(store *stubApprovalStore, users *stubReporteeStore, notifier ReviewNotifier) *ApprovalService {
	return NewApprovalService(store, users, &stubAuditLogger{}, notifier, nil, nil)
}

func TestReviewAppliesDecisionsAtomically(t *testing.T) {
	store := &stubApprovalStore{
		submitted: []models.TimesheetRecord{
			submittedRecord("ts1", "emp1", day(2025, time.June, 2)),
			submittedRecord("ts2", "emp1", day(2025, time.June, 3)),
		},
	}
	users := &stubReporteeStore{reportees: []models.User{{ID: "emp1"}}}
	notifier := &capturingNotifier{}
	svc := newTestApprovalService(store, users, notifier)

	resp, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{
			{TimesheetID: "ts1", Status: "APPROVED"},
			{TimesheetID: "ts2", Status: "REJECTED", ManagerComments: "log against the right task"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Reviewed)
	assert.Equal(t, 1, store.txCalls)

	assert.Equal(t, models.TimesheetStatusApproved, store.writer.statusUpdates["ts1"])
	assert.Equal(t, models.TimesheetStatusRejected, store.writer.statusUpdates["ts2"])

	// Approval clears comments, rejection stores them.
	assert.Nil(t, store.comments["ts1"])
	require.NotNil(t, store.comments["ts2"])
	assert.Equal(t, "log against the right task", *store.comments["ts2"])

	require.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.entries, 2)
	assert.Equal(t, models.TimesheetStatusApproved, notifier.entries[0].Status)
	assert.Equal(t, models.TimesheetStatusRejected, notifier.entries[1].Status)
}

func TestReviewRejectsUnknownEntry(t *testing.T) {
	store := &stubApprovalStore{
		submitted: []models.TimesheetRecord{
			submittedRecord("ts1", "emp1", day(2025, time.June, 2)),
		},
	}
	svc := newTestApprovalService(store, &stubReporteeStore{reportees: []models.User{{ID: "emp1"}}}, nil)

	_, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{
			{TimesheetID: "ts1", Status: "APPROVED"},
			{TimesheetID: "missing", Status: "APPROVED"},
		},
	})
	require.ErrorIs(t, err, appErrors.ErrDecisionMismatch)
	assert.Zero(t, store.txCalls)
}

func TestReviewRejectsDuplicateDecision(t *testing.T) {
	store := &stubApprovalStore{
		submitted: []models.TimesheetRecord{
			submittedRecord("ts1", "emp1", day(2025, time.June, 2)),
		},
	}
	svc := newTestApprovalService(store, &stubReporteeStore{reportees: []models.User{{ID: "emp1"}}}, nil)

	_, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{
			{TimesheetID: "ts1", Status: "APPROVED"},
			{TimesheetID: "ts1", Status: "REJECTED"},
		},
	})
	require.ErrorIs(t, err, appErrors.ErrDecisionMismatch)
}

func TestReviewRejectsForeignReportee(t *testing.T) {
	store := &stubApprovalStore{
		submitted: []models.TimesheetRecord{
			submittedRecord("ts1", "outsider", day(2025, time.June, 2)),
		},
	}
	svc := newTestApprovalService(store, &stubReporteeStore{reportees: []models.User{{ID: "emp1"}}}, nil)

	_, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{{TimesheetID: "ts1", Status: "APPROVED"}},
	})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Zero(t, store.txCalls)
}

func TestReviewRejectsUnsupportedStatus(t *testing.T) {
	svc := newTestApprovalService(&stubApprovalStore{}, &stubReporteeStore{}, nil)

	_, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{{TimesheetID: "ts1", Status: "SUBMITTED"}},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReviewWorksWithoutNotifier(t *testing.T) {
	store := &stubApprovalStore{
		submitted: []models.TimesheetRecord{
			submittedRecord("ts1", "emp1", day(2025, time.June, 2)),
		},
	}
	svc := newTestApprovalService(store, &stubReporteeStore{reportees: []models.User{{ID: "emp1"}}}, nil)

	resp, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{{TimesheetID: "ts1", Status: "APPROVED"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Reviewed)
}

func TestReviewRecordsReviewedMetrics(t *testing.T) {
	store := &stubApprovalStore{
		submitted: []models.TimesheetRecord{
			submittedRecord("ts1", "emp1", day(2025, time.June, 2)),
			submittedRecord("ts2", "emp1", day(2025, time.June, 3)),
		},
	}
	metrics := NewMetricsService()
	svc := NewApprovalService(store, &stubReporteeStore{reportees: []models.User{{ID: "emp1"}}}, &stubAuditLogger{}, nil, metrics, nil)

	_, err := svc.Review(context.Background(), "mgr1", dto.ReviewTimesheetRequest{
		Decisions: []dto.ApprovalDecision{
			{TimesheetID: "ts1", Status: "APPROVED"},
			{TimesheetID: "ts2", Status: "REJECTED", ManagerComments: "wrong task"},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, metrics.Snapshot().EntriesReviewed)
}
