package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

// SearchResponse is the body of GET /api/rag/search.
type SearchResponse struct {
	Results []vector.Result `json:"results"`
}

// handleRAGSearch handles GET /api/rag/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional): number of results, defaulting to the retriever's
func (s *Server) handleRAGSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	if s.config.Searcher == nil {
		return c.JSON(SearchResponse{Results: []vector.Result{}})
	}

	results, err := s.config.Searcher.Search(c.UserContext(), query, topK)
	if err != nil {
		s.logger.Error("rag search failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(SearchResponse{Results: results})
}
