package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripmate/tripmate-backend/internal/service/pending"
)

// SetPendingRequest stashes the first message of a conversation being
// created, so the chat view can pick it up after navigation.
type SetPendingRequest struct {
	pending.Message
}

// ConsumePendingResponse returns the stashed message, or null when none.
type ConsumePendingResponse struct {
	Message *pending.Message `json:"message"`
}

// SetPending handles POST /pending.
func (s *Server) SetPending(c echo.Context) error {
	var req SetPendingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Text == "" && len(req.FileParts) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text or fileParts is required"})
	}

	if err := s.pendingStore.Set(c.Request().Context(), GetUserID(c), &req.Message); err != nil {
		s.logger.WithError(err).Error("failed to store pending message")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store pending message"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ConsumePending handles POST /pending/consume: returns and clears the
// user's pending message in one atomic step.
func (s *Server) ConsumePending(c echo.Context) error {
	msg, err := s.pendingStore.Consume(c.Request().Context(), GetUserID(c))
	if err != nil {
		s.logger.WithError(err).Error("failed to consume pending message")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to consume pending message"})
	}

	return c.JSON(http.StatusOK, ConsumePendingResponse{Message: msg})
}
