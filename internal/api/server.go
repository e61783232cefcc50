package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tripmate/tripmate-backend/internal/service"
	"github.com/tripmate/tripmate-backend/internal/service/assistant"
	"github.com/tripmate/tripmate-backend/internal/service/pending"
	"github.com/tripmate/tripmate-backend/internal/service/upload"
	"github.com/tripmate/tripmate-backend/internal/types"
)

// ConversationStore is the conversation persistence surface the handlers need.
type ConversationStore interface {
	List(ctx context.Context, userID string, limit int) ([]types.Conversation, error)
	GetWithMessages(ctx context.Context, id uuid.UUID, userID string) (*types.ConversationWithMessages, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

// Server holds API dependencies.
type Server struct {
	authService  *service.AuthService
	convStore    ConversationStore
	assistantSvc *assistant.Service
	pendingStore *pending.Store
	uploader     *upload.Client
	logger       *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(authService *service.AuthService, convStore ConversationStore, assistantSvc *assistant.Service, pendingStore *pending.Store, uploader *upload.Client, logger *logrus.Logger) *Server {
	return &Server{
		authService:  authService,
		convStore:    convStore,
		assistantSvc: assistantSvc,
		pendingStore: pendingStore,
		uploader:     uploader,
		logger:       logger,
	}
}
