package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/llm"
)

// ChatList is the body of GET /api/chats.
type ChatList struct {
	Chats []conversation.Summary `json:"chats"`
}

// NewChatRequest is the optional body of POST /api/chats.
type NewChatRequest struct {
	Title string `json:"title"`
}

// StatusResponse acknowledges a mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleListChats(c *fiber.Ctx) error {
	chats, err := s.config.Store.List(c.UserContext())
	if err != nil {
		s.logger.Error("listing chats failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list chats"})
	}

	return c.JSON(ChatList{Chats: chats})
}

func (s *Server) handleCreateChat(c *fiber.Ctx) error {
	var req NewChatRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
		}
	}

	rec, err := s.config.Store.Create(c.UserContext(), req.Title)
	if err != nil {
		s.logger.Error("creating chat failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to create chat"})
	}

	return c.JSON(rec)
}

func (s *Server) handleGetChat(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := s.config.Store.Get(c.UserContext(), id)
	if conversation.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "chat not found"})
	}
	if err != nil {
		s.logger.Error("reading chat failed", "chat_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to read chat"})
	}

	return c.JSON(rec)
}

func (s *Server) handleDeleteChat(c *fiber.Ctx) error {
	id := c.Params("id")

	err := s.config.Store.Delete(c.UserContext(), id)
	if conversation.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "chat not found"})
	}
	if err != nil {
		s.logger.Error("deleting chat failed", "chat_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to delete chat"})
	}

	return c.JSON(StatusResponse{Status: "deleted"})
}
