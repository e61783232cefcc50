package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tripmate/tripmate-backend/internal/storage/postgres"
	"github.com/tripmate/tripmate-backend/internal/types"
)

const maxTitleLen = 50

// saveTurn persists a completed turn: it upserts the conversation, appends
// the transcript suffix that is not yet stored, and titles a brand-new
// conversation from its first user message. Every step is best-effort — the
// answer has already been streamed, so a persistence failure is logged and
// swallowed rather than surfaced as a broken chat response.
func (s *Service) saveTurn(ctx context.Context, turn *Turn, assistantText string, toolEvents []toolEvent) {
	created, err := s.convs.Upsert(ctx, turn.ConversationID, turn.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("conversation_id", turn.ConversationID).Error("failed to upsert conversation")
		return
	}

	rows := s.transcriptRows(turn, assistantText, toolEvents)

	// Append only the suffix beyond what is already stored. The transcript
	// is append-only and never reordered, so replaying the same full
	// transcript never duplicates rows.
	count, err := s.messages.CountByConversationID(ctx, turn.ConversationID)
	if err != nil {
		s.logger.WithError(err).Error("failed to count stored messages")
		return
	}
	if count < len(rows) {
		if err := s.messages.AppendBatch(ctx, rows[count:]); err != nil {
			s.logger.WithError(err).Error("failed to append messages")
			return
		}
	}

	if created {
		s.storeTitle(ctx, turn)
	}
}

// transcriptRows builds storage rows for the full turn transcript: the
// normalized incoming messages plus the new assistant reply. Tool events are
// attached to the assistant row as metadata.
func (s *Service) transcriptRows(turn *Turn, assistantText string, toolEvents []toolEvent) []types.Message {
	rows := make([]types.Message, 0, len(turn.Messages)+1)
	for _, msg := range turn.Messages {
		rows = append(rows, types.Message{
			ConversationID: turn.ConversationID,
			Role:           msg.Role,
			Content:        msg.Content,
		})
	}

	assistantRow := types.Message{
		ConversationID: turn.ConversationID,
		Role:           types.RoleAssistant,
		Content:        assistantText,
	}
	if len(toolEvents) > 0 {
		metadata, err := json.Marshal(map[string]any{"toolCalls": toolEvents})
		if err != nil {
			s.logger.WithError(err).Warn("failed to marshal tool events")
		} else {
			assistantRow.Metadata = metadata
		}
	}
	return append(rows, assistantRow)
}

// storeTitle derives and stores the title of a newly created conversation
// from its first stored user message.
func (s *Service) storeTitle(ctx context.Context, turn *Turn) {
	content, err := s.messages.FirstUserContent(ctx, turn.ConversationID)
	if err != nil {
		if !errors.Is(err, postgres.ErrNotFound) {
			s.logger.WithError(err).Warn("failed to load first user message")
		}
		return
	}

	if err := s.convs.UpdateTitle(ctx, turn.ConversationID, deriveTitle(content)); err != nil {
		s.logger.WithError(err).Warn("failed to update conversation title")
	}
}

// deriveTitle trims the first user message to at most 50 characters, adding
// an ellipsis when the full 50 were used.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > maxTitleLen {
		runes = runes[:maxTitleLen]
	}
	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "New Conversation"
	}
	if len([]rune(title)) == maxTitleLen {
		title += "..."
	}
	return title
}
