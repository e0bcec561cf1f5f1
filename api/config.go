// Package api provides the HTTP API for chatting with the Cape Town knowledge
// base and managing stored conversations.
package api

import (
	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/tools"
)

// DefaultAllowedOrigins are the local frontend dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// AllowedOrigins for CORS. Empty uses DefaultAllowedOrigins.
	AllowedOrigins []string

	// Store holds conversations.
	Store conversation.Store

	// Runner answers chat turns.
	Runner Runner

	// Searcher backs /api/rag/search. Nil disables the route's results.
	Searcher chat.Searcher

	// Tools and Catalog back the /api/mcp routes.
	Tools   chat.ToolInvoker
	Catalog tools.Catalog
}
