package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tripmate/tripmate-backend/internal/ai/anthropic"
	"github.com/tripmate/tripmate-backend/internal/service/weather"
	"github.com/tripmate/tripmate-backend/internal/types"
)

const (
	// historyWindow bounds how many stored messages are prepended as model
	// context. Older history stays in storage but is not sent to the model.
	historyWindow = 20

	// maxTurnSteps caps model/tool round trips per turn.
	maxTurnSteps = 10

	anonymousUser = "anonymous"
)

// ConversationStore is the conversation persistence surface the service needs.
type ConversationStore interface {
	Upsert(ctx context.Context, id uuid.UUID, userID string) (bool, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
}

// MessageStore is the message persistence surface the service needs.
type MessageStore interface {
	CountByConversationID(ctx context.Context, convID uuid.UUID) (int, error)
	AppendBatch(ctx context.Context, msgs []types.Message) error
	GetRecent(ctx context.Context, convID uuid.UUID, limit int) ([]types.Message, error)
	FirstUserContent(ctx context.Context, convID uuid.UUID) (string, error)
}

// ModelClient streams model turns.
type ModelClient interface {
	Configured() bool
	Stream(ctx context.Context, req *anthropic.StreamRequest, handler anthropic.StreamHandler) (*anthropic.TurnResult, error)
}

// WeatherClient looks up weather for the weather tool.
type WeatherClient interface {
	Fetch(ctx context.Context, location string) (*weather.Report, error)
}

// Service handles chat turns: normalization, the domain gate, the streaming
// model call with tools, and turn persistence.
type Service struct {
	model    ModelClient
	messages MessageStore
	convs    ConversationStore
	weather  WeatherClient
	logger   *logrus.Logger

	selector Selector
	now      func() time.Time
}

// NewService creates a new assistant Service.
func NewService(model ModelClient, msgStore MessageStore, convStore ConversationStore, weatherClient WeatherClient, logger *logrus.Logger) *Service {
	return &Service{
		model:    model,
		messages: msgStore,
		convs:    convStore,
		weather:  weatherClient,
		logger:   logger,
		selector: defaultSelector,
		now:      time.Now,
	}
}

// PrepareTurn resolves the conversation id, normalizes the transcript and
// runs the domain gate. It fails with anthropic.ErrNotConfigured when the
// provider credential is missing, before any streaming starts.
func (s *Service) PrepareTurn(req *TurnRequest) (*Turn, error) {
	if !s.model.Configured() {
		return nil, anthropic.ErrNotConfigured
	}

	turn := &Turn{
		ConversationID: uuid.New(),
		UserID:         anonymousUser,
	}
	if req.ConversationID != nil && *req.ConversationID != "" {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("invalid conversation id: %w", err)
		}
		turn.ConversationID = id
	}
	if req.UserID != nil && *req.UserID != "" {
		turn.UserID = *req.UserID
	}

	turn.Messages = Normalize(req.Messages)

	// Only the last message is gated: history already passed once.
	if len(turn.Messages) > 0 {
		last := turn.Messages[len(turn.Messages)-1]
		if last.Content != "" && !IsTravelRelated(last.Content) {
			turn.OutOfScope = true
			turn.Reply = s.outOfScopeResponse()
		}
	}

	return turn, nil
}

// StreamTurn runs the model call for a prepared in-scope turn, forwarding
// chunks to sink, and persists the completed turn. Nothing is persisted when
// the stream fails or is aborted.
func (s *Service) StreamTurn(ctx context.Context, turn *Turn, sink Sink) error {
	history, err := s.messages.GetRecent(ctx, turn.ConversationID, historyWindow)
	if err != nil {
		// Missing context degrades the answer but should not break the turn.
		s.logger.WithError(err).Warn("failed to load conversation history")
	}

	msgs := make([]anthropic.Message, 0, len(history)+len(turn.Messages))
	for _, msg := range history {
		if msg.Role == types.RoleSystem {
			continue
		}
		msgs = append(msgs, anthropic.Message{Role: string(msg.Role), Content: msg.Content})
	}
	for _, msg := range turn.Messages {
		msgs = append(msgs, anthropic.Message{Role: string(msg.Role), Content: msg.Content})
	}

	relay := &chunkRelay{sink: sink}
	result, err := s.model.Stream(ctx, &anthropic.StreamRequest{
		System:   SystemPrompt,
		Messages: msgs,
		Tools:    s.tools(),
		MaxSteps: maxTurnSteps,
	}, relay)
	if err != nil {
		s.logger.WithError(err).WithField("conversation_id", turn.ConversationID).Error("stream error")
		relay.send(Chunk{Type: ChunkError, ErrorText: "stream interrupted"})
		return err
	}

	relay.send(Chunk{Type: ChunkFinish})

	s.saveTurn(ctx, turn, result.Text, relay.toolEvents)
	return nil
}

// toolEvent records one executed tool call for assistant message metadata,
// so the UI can re-render widgets when reloading the conversation.
type toolEvent struct {
	ToolName  string          `json:"toolName"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	ErrorText string          `json:"errorText,omitempty"`
}

// chunkRelay adapts the model stream callbacks to the chunk sink and records
// tool events for persistence. After a send failure (caller went away) it
// stops forwarding; the request context cancels the model stream itself.
type chunkRelay struct {
	sink       Sink
	sendErr    error
	toolEvents []toolEvent
}

func (r *chunkRelay) send(chunk Chunk) {
	if r.sendErr != nil {
		return
	}
	r.sendErr = r.sink.Send(chunk)
}

func (r *chunkRelay) OnTextDelta(text string) {
	r.send(Chunk{Type: ChunkTextDelta, Text: text})
}

func (r *chunkRelay) OnToolInputStart(name string) {
	r.send(Chunk{Type: ChunkToolInputStart, ToolName: name})
}

func (r *chunkRelay) OnToolCall(id, name string, input json.RawMessage) {
	r.send(Chunk{Type: ChunkToolCall, ToolCallID: id, ToolName: name, Input: input})
}

func (r *chunkRelay) OnToolResult(id, name string, output json.RawMessage, errText string) {
	r.toolEvents = append(r.toolEvents, toolEvent{
		ToolName:  name,
		Output:    output,
		ErrorText: errText,
	})
	r.send(Chunk{Type: ChunkToolResult, ToolCallID: id, ToolName: name, Output: output, ErrorText: errText})
}
