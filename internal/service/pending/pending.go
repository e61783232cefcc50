// Package pending hands off a user's first message between the route that
// creates a conversation and the route that renders it. The entry lives in
// Redis with a short TTL instead of process memory, so the hand-off survives
// multiple instances and a lost entry is simply re-entered by the user.
package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tripmate/tripmate-backend/internal/cache/redis"
	"github.com/tripmate/tripmate-backend/internal/types"
)

const ttl = 5 * time.Minute

// Message is a stashed first message: its text plus any uploaded file parts.
type Message struct {
	Text      string       `json:"text"`
	FileParts []types.Part `json:"fileParts,omitempty"`
}

// Store keeps at most one pending message per user.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new pending message store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func key(userID string) string {
	return "chat:pending:" + userID
}

// Set stashes the pending message for a user, replacing any previous one.
func (s *Store) Set(ctx context.Context, userID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal pending message: %w", err)
	}
	if err := s.redis.Set(ctx, key(userID), string(data), ttl); err != nil {
		return fmt.Errorf("store pending message: %w", err)
	}
	return nil
}

// Consume returns the pending message and clears it in one atomic step.
// Returns nil when nothing is pending.
func (s *Store) Consume(ctx context.Context, userID string) (*Message, error) {
	data, err := s.redis.GetDel(ctx, key(userID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume pending message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, fmt.Errorf("unmarshal pending message: %w", err)
	}
	return &msg, nil
}
