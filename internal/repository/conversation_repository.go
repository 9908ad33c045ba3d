package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/worklane/timesheet-api/internal/models"
)

// ConversationRepository stores Teams conversation references used to reach
// users proactively.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new instance of ConversationRepository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Get returns the stored conversation reference for a user, or sql.ErrNoRows
// when the user never opened the bot.
func (r *ConversationRepository) Get(ctx context.Context, userID string) (*models.ConversationReference, error) {
	const query = `SELECT user_id, conversation_id, service_url, updated_at
FROM conversation_references WHERE user_id = $1 LIMIT 1`
	var ref models.ConversationReference
	if err := r.db.GetContext(ctx, &ref, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get conversation reference: %w", err)
	}
	return &ref, nil
}

// GetMany returns the conversation references known for the given users.
func (r *ConversationRepository) GetMany(ctx context.Context, userIDs []string) ([]models.ConversationReference, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT user_id, conversation_id, service_url, updated_at
FROM conversation_references WHERE user_id = ANY($1)`
	var refs []models.ConversationReference
	if err := r.db.SelectContext(ctx, &refs, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list conversation references: %w", err)
	}
	return refs, nil
}

// Upsert records or refreshes the conversation reference for a user.
func (r *ConversationRepository) Upsert(ctx context.Context, ref *models.ConversationReference) error {
	now := time.Now().UTC()
	const query = `INSERT INTO conversation_references (user_id, conversation_id, service_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (user_id) DO UPDATE SET conversation_id = EXCLUDED.conversation_id, service_url = EXCLUDED.service_url, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, ref.UserID, ref.ConversationID, ref.ServiceURL, now); err != nil {
		return fmt.Errorf("upsert conversation reference: %w", err)
	}
	return nil
}
