// Package toolserver is the auxiliary tool service. It answers the chat
// service's tool RPCs over plain HTTP and exposes the same tools to MCP
// clients at /mcp.
package toolserver

import (
	"log/slog"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ragchat/pkg/logger"
	"github.com/papercomputeco/ragchat/pkg/tools"
)

const (
	// Name is reported by GET / and the MCP handshake.
	Name = "Cape Town MCP Server"

	// Version is the tool service's API version.
	Version = "1.0.0"

	// DefaultListenAddr is where `ragchat serve tools` listens.
	DefaultListenAddr = ":5001"
)

type Config struct {
	// ListenAddr is the address the server binds to.
	ListenAddr string

	// Timezone is the IANA zone times are reported in. Defaults to
	// Africa/Johannesburg.
	Timezone string

	// Now overrides the clock in tests.
	Now func() time.Time

	Logger *slog.Logger
}

type Server struct {
	config    Config
	location  *time.Location
	logger    *slog.Logger
	app       *fiber.App
	mcpServer *mcp.Server
}

// NewServer creates the tool server and registers its routes.
func NewServer(c Config) (*Server, error) {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Timezone == "" {
		c.Timezone = tools.DefaultTimezone
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   c,
		location: loc,
		logger:   c.Logger,
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
	}

	s.mcpServer = s.newMCPServer()
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	s.app.Get("/", s.handleRoot)
	s.app.Get("/tools", s.handleListTools)
	s.app.Post("/tools/"+tools.CurrentTime, s.handleCurrentTime)
	s.app.Post("/tools/"+tools.TimezoneInfo, s.handleTimezoneInfo)
	s.app.All("/mcp", adaptor.HTTPHandler(handler))

	return s, nil
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting tool server", "listen", s.config.ListenAddr, "timezone", s.location.String())
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
