package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripmate/tripmate-backend/internal/ai/anthropic"
	"github.com/tripmate/tripmate-backend/internal/service/assistant"
)

// ConversationIDHeader carries the resolved conversation id back to the
// caller, so a client that submitted without one learns the generated id.
const ConversationIDHeader = "X-Conversation-Id"

// OutOfScopeResponse is the single JSON body returned when the domain gate
// rejects the input.
type OutOfScopeResponse struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Chat handles POST /chat: one turn of the conversation, streamed back as
// newline-delimited JSON chunks.
func (s *Server) Chat(c echo.Context) error {
	var req assistant.TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "messages are required"})
	}

	// An authenticated user id takes precedence over the body's.
	if userID := GetUserID(c); userID != "" {
		req.UserID = &userID
	}

	turn, err := s.assistantSvc.PrepareTurn(&req)
	if err != nil {
		if errors.Is(err, anthropic.ErrNotConfigured) {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "API configuration error"})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
	}

	c.Response().Header().Set(ConversationIDHeader, turn.ConversationID.String())

	if turn.OutOfScope {
		return c.JSON(http.StatusOK, OutOfScopeResponse{Type: "text", Text: turn.Reply})
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)

	// Errors past this point cannot change the status line; the stream
	// carries an error chunk and simply ends.
	sink := &ndjsonSink{resp: c.Response()}
	if err := s.assistantSvc.StreamTurn(c.Request().Context(), turn, sink); err != nil {
		s.logger.WithError(err).Error("chat turn failed mid-stream")
	}
	return nil
}

// ndjsonSink writes chunks as newline-delimited JSON, flushing after each so
// the client can render partial state.
type ndjsonSink struct {
	resp *echo.Response
}

func (s *ndjsonSink) Send(chunk assistant.Chunk) error {
	if err := json.NewEncoder(s.resp).Encode(chunk); err != nil {
		return err
	}
	s.resp.Flush()
	return nil
}
