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

// Reads order by the serial position column, not created_at: now() is fixed
// at transaction start in Postgres, so every row of a batched turn shares one
// timestamp and timestamp order within a turn would be undefined.
const (
	messagesByConversationQuery = `SELECT id, conversation_id, role, content, metadata, created_at
	 FROM messages WHERE conversation_id = $1 ORDER BY position`

	recentMessagesQuery = `SELECT id, conversation_id, role, content, metadata, created_at FROM (
	     SELECT id, conversation_id, role, content, metadata, created_at, position
	     FROM messages WHERE conversation_id = $1
	     ORDER BY position DESC LIMIT $2
	 ) recent ORDER BY position`

	firstUserContentQuery = `SELECT content FROM messages
	 WHERE conversation_id = $1 AND role = 'user'
	 ORDER BY position LIMIT 1`
)

// MessageRepository handles database operations for messages.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// CountByConversationID returns the number of stored messages.
func (r *MessageRepository) CountByConversationID(ctx context.Context, convID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, convID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// AppendBatch inserts messages in transcript order within one transaction.
// The statements run sequentially, so the position serial assigns strictly
// increasing values in transcript order.
func (r *MessageRepository) AppendBatch(ctx context.Context, msgs []types.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, msg := range msgs {
		_, err := tx.Exec(ctx,
			`INSERT INTO messages (conversation_id, role, content, metadata)
			 VALUES ($1, $2, $3, $4)`,
			msg.ConversationID, string(msg.Role), msg.Content, msg.Metadata)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByConversationID returns all messages for a conversation, oldest first.
func (r *MessageRepository) GetByConversationID(ctx context.Context, convID uuid.UUID) ([]types.Message, error) {
	rows, err := r.pool.Query(ctx, messagesByConversationQuery, convID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return scanMessages(rows)
}

// GetRecent returns the most recent limit messages, oldest first.
func (r *MessageRepository) GetRecent(ctx context.Context, convID uuid.UUID, limit int) ([]types.Message, error) {
	rows, err := r.pool.Query(ctx, recentMessagesQuery, convID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}
	return scanMessages(rows)
}

// FirstUserContent returns the content of the oldest user message in the
// conversation, or ErrNotFound when none exists.
func (r *MessageRepository) FirstUserContent(ctx context.Context, convID uuid.UUID) (string, error) {
	var content string
	err := r.pool.QueryRow(ctx, firstUserContentQuery, convID).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("first user message: %w", err)
	}
	return content, nil
}

func scanMessages(rows pgx.Rows) ([]types.Message, error) {
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		var msg types.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.Metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = types.MessageRole(role)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
