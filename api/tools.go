package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragchat/pkg/tools"
)

// ToolList is the body of GET /api/mcp/tools.
type ToolList struct {
	Tools tools.Catalog `json:"tools"`
}

// ToolCallResponse is the body of POST /api/mcp/call/:tool. Result is null
// when the tool produced nothing.
type ToolCallResponse struct {
	Result *string `json:"result"`
	Status string  `json:"status"`
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	catalog := s.config.Catalog
	if catalog == nil {
		catalog = tools.Catalog{}
	}
	return c.JSON(ToolList{Tools: catalog})
}

func (s *Server) handleCallTool(c *fiber.Ctx) error {
	if s.config.Tools == nil {
		return c.JSON(ToolCallResponse{Status: tools.StatusUnreachable.String()})
	}

	res := s.config.Tools.Invoke(c.UserContext(), c.Params("tool"), nil)

	resp := ToolCallResponse{Status: res.Status.String()}
	if res.Ok() {
		resp.Result = &res.Value
	}
	return c.JSON(resp)
}
