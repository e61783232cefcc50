package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tripmate/tripmate-backend/internal/storage/postgres"
	"github.com/tripmate/tripmate-backend/internal/types"
)

const conversationListLimit = 50

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []types.Conversation `json:"conversations"`
}

// ListConversations returns the user's conversations for the sidebar, most
// recently updated first.
func (s *Server) ListConversations(c echo.Context) error {
	conversations, err := s.convStore.List(c.Request().Context(), GetUserID(c), conversationListLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to list conversations")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list conversations"})
	}

	if conversations == nil {
		conversations = []types.Conversation{}
	}

	return c.JSON(http.StatusOK, ListConversationsResponse{Conversations: conversations})
}

// GetConversation returns a conversation with its messages.
func (s *Server) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	conv, err := s.convStore.GetWithMessages(c.Request().Context(), id, GetUserID(c))
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to get conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get conversation"})
	}

	if conv.Messages == nil {
		conv.Messages = []types.Message{}
	}

	return c.JSON(http.StatusOK, conv)
}

// DeleteConversation removes a conversation and, by cascade, its messages.
// Deleting an id that does not exist succeeds.
func (s *Server) DeleteConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	if err := s.convStore.Delete(c.Request().Context(), id, GetUserID(c)); err != nil {
		s.logger.WithError(err).Error("failed to delete conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete conversation"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
