package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timesheet-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "manager_id", "active", "last_login", "created_at", "updated_at"})
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow("usr-1", "employee@worklane.io", "hash", "Test Employee", models.RoleEmployee, nil, true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("employee@worklane.io").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "employee@worklane.io")
	require.NoError(t, err)
	require.Equal(t, "usr-1", user.ID)
	require.Equal(t, models.RoleEmployee, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("ghost@worklane.io").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@worklane.io")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListReportees(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	managerID := "mgr-1"
	rows := userRows().
		AddRow("usr-1", "a@worklane.io", "hash", "Alpha", models.RoleEmployee, &managerID, true, nil, time.Now(), time.Now()).
		AddRow("usr-2", "b@worklane.io", "hash", "Beta", models.RoleEmployee, &managerID, true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE manager_id = $1 AND active = TRUE ORDER BY full_name`)).
		WithArgs("mgr-1").
		WillReturnRows(rows)

	users, err := repo.ListReportees(context.Background(), "mgr-1")
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleEmployee
	active := true
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE 1=1 AND role = $1 AND active = $2 AND (LOWER(email) LIKE $3 OR LOWER(full_name) LIKE $3)`)).
		WithArgs(role, active, "%alpha%").
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs(role, active, "%alpha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	users, total, err := repo.List(context.Background(), models.UserFilter{
		Role:   &role,
		Active: &active,
		Search: "Alpha",
	})
	require.NoError(t, err)
	require.Empty(t, users)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenRoundTrip(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).
		WithArgs(sqlmock.AnyArg(), "usr-1", "opaque", sqlmock.AnyArg(), sqlmock.AnyArg(), false, "127.0.0.1", "test-agent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.RefreshToken{
		UserID:    "usr-1",
		Token:     "opaque",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
		IPAddress: "127.0.0.1",
		UserAgent: "test-agent",
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.NotEmpty(t, token.ID)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token = $1 LIMIT 1`)).
		WithArgs("opaque").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
			AddRow(token.ID, "usr-1", "opaque", token.ExpiresAt, token.CreatedAt, false, nil, "127.0.0.1", "test-agent"))

	stored, err := repo.FindRefreshToken(context.Background(), "opaque")
	require.NoError(t, err)
	require.Equal(t, "usr-1", stored.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRevokeUserRefreshTokens(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`)).
		WithArgs("usr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "usr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	userID := "usr-1"
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_logs`)).
		WithArgs(sqlmock.AnyArg(), &userID, models.AuditActionTimesheetSubmit, "timesheet", nil, []byte(nil), []byte(`{"detail":"3 entries"}`), "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log := &models.AuditLog{
		UserID:    &userID,
		Action:    models.AuditActionTimesheetSubmit,
		Resource:  "timesheet",
		NewValues: []byte(`{"detail":"3 entries"}`),
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
