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

func newConversationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestConversationRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newConversationRepoMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM conversation_references WHERE user_id = $1 LIMIT 1`)).
		WithArgs("usr-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "usr-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepositoryGetMany(t *testing.T) {
	db, mock, cleanup := newConversationRepoMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "conversation_id", "service_url", "updated_at"}).
		AddRow("usr-1", "conv-1", "https://smba.example.com/apis", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM conversation_references WHERE user_id = ANY($1)`)).
		WithArgs(pq.Array([]string{"usr-1", "usr-2"})).
		WillReturnRows(rows)

	refs, err := repo.GetMany(context.Background(), []string{"usr-1", "usr-2"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "conv-1", refs[0].ConversationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepositoryGetManyEmptyInput(t *testing.T) {
	db, _, cleanup := newConversationRepoMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	refs, err := repo.GetMany(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestConversationRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newConversationRepoMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO conversation_references`)).
		WithArgs("usr-1", "conv-1", "https://smba.example.com/apis", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref := &models.ConversationReference{
		UserID:         "usr-1",
		ConversationID: "conv-1",
		ServiceURL:     "https://smba.example.com/apis",
	}
	require.NoError(t, repo.Upsert(context.Background(), ref))
	require.NoError(t, mock.ExpectationsWereMet())
}
