package assistant

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/tripmate/tripmate-backend/internal/types"
)

// TurnRequest is the body of a chat turn submission.
type TurnRequest struct {
	Messages       []types.ChatMessage `json:"messages"`
	ConversationID *string             `json:"conversationId,omitempty"`
	UserID         *string             `json:"userId,omitempty"`
}

// Chunk types emitted on the turn stream.
const (
	ChunkTextDelta      = "text-delta"
	ChunkToolInputStart = "tool-input-start"
	ChunkToolCall       = "tool-call"
	ChunkToolResult     = "tool-result"
	ChunkFinish         = "finish"
	ChunkError          = "error"
)

// Chunk is one incremental piece of a streamed turn. The UI renders partial
// state from these (e.g. "Preparing weather…" on tool-input-start).
type Chunk struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

// Sink receives stream chunks as they are produced. A Send error aborts the
// turn (the caller went away).
type Sink interface {
	Send(chunk Chunk) error
}

// Turn is a prepared chat turn: the resolved conversation id, the normalized
// transcript, and the domain gate verdict.
type Turn struct {
	ConversationID uuid.UUID
	UserID         string
	Messages       []types.ModelMessage

	// OutOfScope is set when the domain gate rejected the input; Reply then
	// carries the canned response and no model call or persistence happens.
	OutOfScope bool
	Reply      string
}
