package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmate/tripmate-backend/internal/ai/anthropic"
	"github.com/tripmate/tripmate-backend/internal/service/assistant"
	"github.com/tripmate/tripmate-backend/internal/service/weather"
	"github.com/tripmate/tripmate-backend/internal/types"
)

type stubModel struct {
	configured bool
	text       string
	err        error
}

func (m *stubModel) Configured() bool { return m.configured }

func (m *stubModel) Stream(ctx context.Context, req *anthropic.StreamRequest, handler anthropic.StreamHandler) (*anthropic.TurnResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	handler.OnTextDelta(m.text)
	return &anthropic.TurnResult{Text: m.text, Steps: 1}, nil
}

type stubMsgStore struct {
	rows []types.Message
}

func (s *stubMsgStore) CountByConversationID(ctx context.Context, convID uuid.UUID) (int, error) {
	n := 0
	for _, row := range s.rows {
		if row.ConversationID == convID {
			n++
		}
	}
	return n, nil
}

func (s *stubMsgStore) AppendBatch(ctx context.Context, msgs []types.Message) error {
	s.rows = append(s.rows, msgs...)
	return nil
}

func (s *stubMsgStore) GetRecent(ctx context.Context, convID uuid.UUID, limit int) ([]types.Message, error) {
	return nil, nil
}

func (s *stubMsgStore) FirstUserContent(ctx context.Context, convID uuid.UUID) (string, error) {
	for _, row := range s.rows {
		if row.ConversationID == convID && row.Role == types.RoleUser {
			return row.Content, nil
		}
	}
	return "", io.EOF
}

type stubConvStore struct{}

func (s *stubConvStore) Upsert(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	return true, nil
}

func (s *stubConvStore) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	return nil
}

type stubWeather struct{}

func (s *stubWeather) Fetch(ctx context.Context, location string) (*weather.Report, error) {
	return &weather.Report{Location: location, Temp: 20, Condition: "Clear"}, nil
}

func newChatServer(model assistant.ModelClient) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := assistant.NewService(model, &stubMsgStore{}, &stubConvStore{}, &stubWeather{}, logger)
	return NewServer(nil, nil, svc, nil, nil, logger)
}

func postChat(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, server.Chat(e.NewContext(req, rec)))
	return rec
}

func TestChatRequiresMessages(t *testing.T) {
	server := newChatServer(&stubModel{configured: true})

	rec := postChat(t, server, `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMissingAPIKey(t *testing.T) {
	server := newChatServer(&stubModel{configured: false})

	rec := postChat(t, server, `{"messages":[{"role":"user","content":"plan a trip"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "API configuration error", resp.Error)
}

func TestChatRejectsBadConversationID(t *testing.T) {
	server := newChatServer(&stubModel{configured: true})

	rec := postChat(t, server, `{"messages":[{"role":"user","content":"plan a trip"}],"conversationId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatOutOfScope(t *testing.T) {
	server := newChatServer(&stubModel{configured: true})

	rec := postChat(t, server, `{"messages":[{"role":"user","content":"Tell me a joke"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Single JSON body, not a stream, with the resolved conversation id.
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	_, err := uuid.Parse(rec.Header().Get(ConversationIDHeader))
	assert.NoError(t, err)

	var resp OutOfScopeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "text", resp.Type)
	assert.NotEmpty(t, resp.Text)
}

func TestChatStreamsNDJSON(t *testing.T) {
	server := newChatServer(&stubModel{configured: true, text: "Pick shoulder season."})

	rec := postChat(t, server, `{"messages":[{"role":"user","content":"best time to visit Jordan for a trip"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get(echo.HeaderContentType))
	_, err := uuid.Parse(rec.Header().Get(ConversationIDHeader))
	assert.NoError(t, err)

	var chunks []assistant.Chunk
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var chunk assistant.Chunk
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &chunk))
		chunks = append(chunks, chunk)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, chunks, 2)
	assert.Equal(t, assistant.ChunkTextDelta, chunks[0].Type)
	assert.Equal(t, "Pick shoulder season.", chunks[0].Text)
	assert.Equal(t, assistant.ChunkFinish, chunks[1].Type)
}

func TestChatStreamErrorEndsWithErrorChunk(t *testing.T) {
	server := newChatServer(&stubModel{configured: true, err: assert.AnError})

	rec := postChat(t, server, `{"messages":[{"role":"user","content":"plan a trip to Oslo"}]}`)

	// Status was already committed before the failure.
	require.Equal(t, http.StatusOK, rec.Code)

	var chunks []assistant.Chunk
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var chunk assistant.Chunk
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &chunk))
		chunks = append(chunks, chunk)
	}
	require.NotEmpty(t, chunks)
	assert.Equal(t, assistant.ChunkError, chunks[len(chunks)-1].Type)
}
