package assistant

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tripmate/tripmate-backend/internal/ai/anthropic"
	"github.com/tripmate/tripmate-backend/internal/service/weather"
	"github.com/tripmate/tripmate-backend/internal/types"
)

// scriptedEvent drives the fake model: each event invokes one handler
// callback, letting tests replay a realistic stream.
type scriptedEvent struct {
	text           string
	toolInputStart string
	toolCall       *fakeToolCall
}

type fakeToolCall struct {
	id    string
	name  string
	input string
}

// fakeModel implements ModelClient with a scripted event sequence.
type fakeModel struct {
	configured bool
	events     []scriptedEvent
	finalText  string
	err        error

	streamCalls int
	lastReq     *anthropic.StreamRequest
}

func (m *fakeModel) Configured() bool { return m.configured }

func (m *fakeModel) Stream(ctx context.Context, req *anthropic.StreamRequest, handler anthropic.StreamHandler) (*anthropic.TurnResult, error) {
	m.streamCalls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	for _, ev := range m.events {
		switch {
		case ev.text != "":
			handler.OnTextDelta(ev.text)
		case ev.toolInputStart != "":
			handler.OnToolInputStart(ev.toolInputStart)
		case ev.toolCall != nil:
			tc := ev.toolCall
			handler.OnToolCall(tc.id, tc.name, json.RawMessage(tc.input))
			// Execute through the registered tool, like the real client.
			for _, tool := range req.Tools {
				if tool.Name != tc.name {
					continue
				}
				out, err := tool.Execute(ctx, json.RawMessage(tc.input))
				if err != nil {
					handler.OnToolResult(tc.id, tc.name, json.RawMessage(`{"error":"`+err.Error()+`"}`), err.Error())
					continue
				}
				payload, _ := json.Marshal(out)
				handler.OnToolResult(tc.id, tc.name, payload, "")
			}
		}
	}
	return &anthropic.TurnResult{Text: m.finalText, Steps: 1}, nil
}

// fakeConvStore implements ConversationStore in memory.
type fakeConvStore struct {
	existing   map[uuid.UUID]bool
	titles     map[uuid.UUID]string
	upsertErr  error
	upsertHits int
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{
		existing: make(map[uuid.UUID]bool),
		titles:   make(map[uuid.UUID]string),
	}
}

func (f *fakeConvStore) Upsert(_ context.Context, id uuid.UUID, _ string) (bool, error) {
	f.upsertHits++
	if f.upsertErr != nil {
		return false, f.upsertErr
	}
	created := !f.existing[id]
	f.existing[id] = true
	return created, nil
}

func (f *fakeConvStore) UpdateTitle(_ context.Context, id uuid.UUID, title string) error {
	f.titles[id] = title
	return nil
}

// fakeMsgStore implements MessageStore in memory, append-only like the real
// table.
type fakeMsgStore struct {
	rows []types.Message
}

func (f *fakeMsgStore) byConv(convID uuid.UUID) []types.Message {
	var out []types.Message
	for _, r := range f.rows {
		if r.ConversationID == convID {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeMsgStore) CountByConversationID(_ context.Context, convID uuid.UUID) (int, error) {
	return len(f.byConv(convID)), nil
}

func (f *fakeMsgStore) AppendBatch(_ context.Context, msgs []types.Message) error {
	f.rows = append(f.rows, msgs...)
	return nil
}

func (f *fakeMsgStore) GetRecent(_ context.Context, convID uuid.UUID, limit int) ([]types.Message, error) {
	msgs := f.byConv(convID)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakeMsgStore) FirstUserContent(_ context.Context, convID uuid.UUID) (string, error) {
	for _, r := range f.byConv(convID) {
		if r.Role == types.RoleUser {
			return r.Content, nil
		}
	}
	return "", io.EOF
}

// fakeWeather implements WeatherClient.
type fakeWeather struct {
	report *weather.Report
	err    error
	calls  int
}

func (f *fakeWeather) Fetch(_ context.Context, location string) (*weather.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.report != nil {
		return f.report, nil
	}
	return &weather.Report{Location: location, Temp: 28, Condition: "Sunny"}, nil
}

// captureSink records every chunk.
type captureSink struct {
	chunks []Chunk
}

func (s *captureSink) Send(chunk Chunk) error {
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *captureSink) ofType(t string) []Chunk {
	var out []Chunk
	for _, c := range s.chunks {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func newTestService(model ModelClient, msgs *fakeMsgStore, convs *fakeConvStore, w *fakeWeather) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewService(model, msgs, convs, w, logger)
	svc.selector = func(int) int { return 0 }
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func userMessage(text string) types.ChatMessage {
	return types.ChatMessage{Role: types.RoleUser, Content: text}
}
