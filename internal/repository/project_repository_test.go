package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timesheet-api/internal/models"
)

func newProjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProjectRepositoryListTaskWindows(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"task_id", "project_id", "project_title", "task_start", "task_end", "project_start", "project_end"}).
		AddRow("task-1", "prj-1", "Internal Tools", start, end, start, end)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE tk.id = ANY($1)`)).
		WithArgs(pq.Array([]string{"task-1"})).
		WillReturnRows(rows)

	windows, err := repo.ListTaskWindows(context.Background(), []string{"task-1"})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	require.True(t, windows[0].Contains(time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)))
	require.False(t, windows[0].Contains(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryListTaskWindowsEmptyInput(t *testing.T) {
	db, _, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	windows, err := repo.ListTaskWindows(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, windows)
}

func TestProjectRepositoryCreateCommitsProjectTasksMembers(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO projects`)).
		WithArgs(sqlmock.AnyArg(), "Internal Tools", sqlmock.AnyArg(), sqlmock.AnyArg(), "mgr-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "API work", sqlmock.AnyArg(), sqlmock.AnyArg(), false, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO members`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "usr-1", true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	project := &models.Project{Title: "Internal Tools", StartDate: start, EndDate: end, CreatedBy: "mgr-1"}
	tasks := []models.Task{{Title: "API work", StartDate: start, EndDate: end}}
	members := []models.Member{{UserID: "usr-1", IsBillable: true}}

	require.NoError(t, repo.Create(context.Background(), project, tasks, members))
	require.NotEmpty(t, project.ID)
	require.Equal(t, project.ID, tasks[0].ProjectID)
	require.Equal(t, project.ID, members[0].ProjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateMissingProject(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE projects SET title = $2, start_date = $3, end_date = $4, updated_at = $5 WHERE id = $1`)).
		WithArgs("ghost", "Renamed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Project{ID: "ghost", Title: "Renamed"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryRemoveMemberSoftDeletes(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE members SET is_removed = TRUE, updated_at = $3 WHERE project_id = $1 AND user_id = $2`)).
		WithArgs("prj-1", "usr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RemoveMember(context.Background(), "prj-1", "usr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryRemoveMemberNotFound(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE members SET is_removed = TRUE`)).
		WithArgs("prj-1", "ghost", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveMember(context.Background(), "prj-1", "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryIsMember(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM members WHERE project_id = $1 AND user_id = $2 AND is_removed = FALSE)`)).
		WithArgs("prj-1", "usr-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsMember(context.Background(), "prj-1", "usr-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
