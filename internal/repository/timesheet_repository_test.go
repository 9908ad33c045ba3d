package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timesheet-api/internal/models"
)

func newTimesheetRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "task_id", "date", "hours", "status", "manager_comments", "created_at", "updated_at"})
}

func TestTimesheetRepositoryListInRange(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	from := time.Date(2025, time.June, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	rows := entryRows().
		AddRow("ts-1", "usr-1", "task-1", from.AddDate(0, 0, 3), 8, models.TimesheetStatusSaved, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, task_id, date, hours, status, manager_comments, created_at, updated_at
FROM timesheets WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`)).
		WithArgs("usr-1", from, to).
		WillReturnRows(rows)

	entries, err := repo.ListInRange(context.Background(), "usr-1", from, to)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "task-1", entries[0].TaskID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	rows := entryRows().
		AddRow("ts-1", "usr-1", "task-1", time.Now(), 8, models.TimesheetStatusSaved, nil, time.Now(), time.Now()).
		AddRow("ts-2", "usr-1", "task-2", time.Now(), 4, models.TimesheetStatusSaved, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM timesheets WHERE user_id = $1 AND status = $2 ORDER BY date`)).
		WithArgs("usr-1", models.TimesheetStatusSaved).
		WillReturnRows(rows)

	entries, err := repo.ListByStatus(context.Background(), "usr-1", models.TimesheetStatusSaved)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryListSubmittedByIDs(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "task_id", "date", "hours", "status", "manager_comments", "created_at", "updated_at",
		"task_title", "project_id", "project_title",
	}).AddRow("ts-1", "usr-1", "task-1", time.Now(), 8, models.TimesheetStatusSubmitted, nil, time.Now(), time.Now(),
		"API work", "prj-1", "Internal Tools")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.id = ANY($1) AND t.status = $2`)).
		WithArgs(pq.Array([]string{"ts-1"}), models.TimesheetStatusSubmitted).
		WillReturnRows(rows)

	records, err := repo.ListSubmittedByIDs(context.Background(), []string{"ts-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Internal Tools", records[0].ProjectTitle)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryListPendingForManager(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "task_id", "date", "hours", "status", "manager_comments", "created_at", "updated_at",
		"task_title", "project_id", "project_title",
	}).AddRow("ts-1", "usr-1", "task-1", time.Now(), 8, models.TimesheetStatusSubmitted, nil, time.Now(), time.Now(),
		"API work", "prj-1", "Internal Tools")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.manager_id = $1 AND t.status = $2 AND p.id = $3`)).
		WithArgs("mgr-1", models.TimesheetStatusSubmitted, "prj-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("mgr-1", models.TimesheetStatusSubmitted, "prj-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.ListPendingForManager(context.Background(), "mgr-1", models.TimesheetFilter{ProjectID: "prj-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryListRecordsAppliesFilter(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	status := models.TimesheetStatusApproved
	from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE 1=1 AND t.user_id = $1 AND t.status = $2 AND t.date >= $3`)).
		WithArgs("usr-1", status, from).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "task_id", "date", "hours", "status", "manager_comments", "created_at", "updated_at",
			"task_title", "project_id", "project_title",
		}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("usr-1", status, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	records, total, err := repo.ListRecords(context.Background(), models.TimesheetFilter{
		UserID:   "usr-1",
		Status:   &status,
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Empty(t, records)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryWithinTxCommits(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO timesheets`)).
		WithArgs(sqlmock.AnyArg(), "usr-1", "task-1", sqlmock.AnyArg(), 8, models.TimesheetStatusSaved, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE timesheets SET status = $2, manager_comments = $3, updated_at = $4 WHERE id = $1`)).
		WithArgs("ts-2", models.TimesheetStatusSubmitted, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(tx TimesheetWriter) error {
		entry := &models.TimesheetEntry{
			UserID: "usr-1",
			TaskID: "task-1",
			Date:   time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC),
			Hours:  8,
			Status: models.TimesheetStatusSaved,
		}
		if err := tx.Insert(context.Background(), entry); err != nil {
			return err
		}
		require.NotEmpty(t, entry.ID)
		return tx.UpdateStatus(context.Background(), "ts-2", models.TimesheetStatusSubmitted, nil)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryWithinTxRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newTimesheetRepoMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("rule violated")
	err := repo.WithinTx(context.Background(), func(tx TimesheetWriter) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
