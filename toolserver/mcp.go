package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ragchat/pkg/tools"
)

// NoInput is the argument type of the parameterless tools.
type NoInput struct{}

func (s *Server) newMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    Name,
			Version: Version,
		},
		&mcp.ServerOptions{},
	)

	for _, t := range tools.DefaultCatalog() {
		switch t.Name {
		case tools.CurrentTime:
			mcp.AddTool(server, &mcp.Tool{Name: t.Name, Description: t.Description}, s.handleMCPCurrentTime)
		case tools.TimezoneInfo:
			mcp.AddTool(server, &mcp.Tool{Name: t.Name, Description: t.Description}, s.handleMCPTimezoneInfo)
		}
	}

	return server
}

func (s *Server) handleMCPCurrentTime(_ context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, CurrentTimeOutput, error) {
	out := s.currentTime()
	return textResult(out), out, nil
}

func (s *Server) handleMCPTimezoneInfo(_ context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, TimezoneInfoOutput, error) {
	out := timezoneInfo()
	return textResult(out), out, nil
}

// textResult mirrors structured output as a JSON text block for clients
// that only read content.
func textResult(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}
