package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/logger"
)

// Runner starts a chat turn and returns its events.
type Runner interface {
	Run(ctx context.Context, turn chat.Turn) <-chan chat.Event
}

// Server is the ragchat API server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
	now    func() time.Time
}

// NewServer creates a new API server.
func NewServer(config Config, log *slog.Logger) (*Server, error) {
	if config.Store == nil {
		return nil, errors.New("conversation store is required")
	}
	if config.Runner == nil {
		return nil, errors.New("chat runner is required")
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = DefaultAllowedOrigins
	}
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: log,
		app:    app,
		now:    time.Now,
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(config.AllowedOrigins, ","),
		AllowCredentials: true,
	}))
	app.Use(s.logRequests)

	app.Get("/ping", s.handlePing)

	app.Get("/api/chats", s.handleListChats)
	app.Post("/api/chats", s.handleCreateChat)
	app.Get("/api/chats/:id", s.handleGetChat)
	app.Delete("/api/chats/:id", s.handleDeleteChat)

	app.Post("/api/chat", s.handleChat)

	app.Get("/api/rag/search", s.handleRAGSearch)

	app.Get("/api/mcp/tools", s.handleListTools)
	app.Post("/api/mcp/call/:tool", s.handleCallTool)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
