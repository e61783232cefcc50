package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripmate/tripmate-backend/internal/types"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// ConversationRepository handles database operations for conversations.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Upsert inserts the conversation if it does not exist, otherwise bumps its
// updated_at. Returns true when the row was newly created, which is what
// drives one-time title generation. The existence check and the upsert are
// two statements; two near-simultaneous turns on a brand-new conversation
// can both observe "created" — an accepted narrow race.
func (r *ConversationRepository) Upsert(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check conversation: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO conversations (id, user_id) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET updated_at = now()`, id, userID)
	if err != nil {
		return false, fmt.Errorf("upsert conversation: %w", err)
	}

	return !exists, nil
}

// GetByID returns a conversation if it exists and belongs to the given user.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID, userID string) (*types.Conversation, error) {
	var conv types.Conversation
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at, updated_at
		 FROM conversations WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// GetWithMessages returns a conversation with all its messages.
func (r *ConversationRepository) GetWithMessages(ctx context.Context, id uuid.UUID, userID string) (*types.ConversationWithMessages, error) {
	conv, err := r.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, messagesByConversationQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	return &types.ConversationWithMessages{
		Conversation: *conv,
		Messages:     msgs,
	}, nil
}

// List returns the user's conversations, most recently updated first.
func (r *ConversationRepository) List(ctx context.Context, userID string, limit int) ([]types.Conversation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, created_at, updated_at
		 FROM conversations WHERE user_id = $1
		 ORDER BY updated_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []types.Conversation
	for rows.Next() {
		var conv types.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// Delete removes a conversation; its messages cascade. Deleting an id that
// does not exist is a success, not an error.
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// UpdateTitle updates the title of a conversation.
func (r *ConversationRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE conversations SET title = $1 WHERE id = $2`, title, id)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
