package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/tripmate/tripmate-backend/internal/ai/anthropic"
	"github.com/tripmate/tripmate-backend/internal/api"
	"github.com/tripmate/tripmate-backend/internal/cache/redis"
	"github.com/tripmate/tripmate-backend/internal/config"
	"github.com/tripmate/tripmate-backend/internal/service"
	"github.com/tripmate/tripmate-backend/internal/service/assistant"
	"github.com/tripmate/tripmate-backend/internal/service/pending"
	"github.com/tripmate/tripmate-backend/internal/service/upload"
	"github.com/tripmate/tripmate-backend/internal/service/weather"
	"github.com/tripmate/tripmate-backend/internal/storage/postgres"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	// Configure log format
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	logger.Info("starting tripmate-backend server")

	// Connect to database
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis client
	redisClient, err := redis.New(cfg.Redis.URI)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	// Initialize model client
	modelClient := anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	if !modelClient.Configured() {
		logger.Warn("ANTHROPIC_API_KEY not set; chat turns will fail until configured")
	}

	// Initialize services
	authService := service.NewAuthService(cfg.Server.JWTSecret)
	weatherClient := weather.NewClient(cfg.Weather.URL)
	uploadClient := upload.NewClient(cfg.Upload.URL, cfg.Upload.Preset)
	pendingStore := pending.NewStore(redisClient)

	// Initialize repositories
	convRepo := postgres.NewConversationRepository(db.Pool())
	msgRepo := postgres.NewMessageRepository(db.Pool())

	// Initialize assistant service
	assistantSvc := assistant.NewService(modelClient, msgRepo, convRepo, weatherClient, logger)

	// Initialize API server
	server := api.NewServer(authService, convRepo, assistantSvc, pendingStore, uploadClient, logger)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Info("request")
			return nil
		},
	}))

	// Health check endpoint (public)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Chat turn endpoint (anonymous turns allowed)
	e.POST("/chat", server.Chat, server.OptionalAuthMiddleware)

	// Conversation and hand-off routes (authenticated)
	authed := e.Group("", server.AuthMiddleware)
	authed.GET("/conversations", server.ListConversations)
	authed.GET("/conversations/:id", server.GetConversation)
	authed.DELETE("/conversations/:id", server.DeleteConversation)
	authed.POST("/files", server.UploadFiles)
	authed.POST("/pending", server.SetPending)
	authed.POST("/pending/consume", server.ConsumePending)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.WithField("addr", addr).Info("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown error")
	}

	logger.Info("server stopped")
}
