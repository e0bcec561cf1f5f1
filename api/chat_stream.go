package api

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/sse"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

// handleChat persists the user message and streams the reply as SSE.
// Without a chat_id a new conversation is created, titled after the message.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "message is required"})
	}

	ctx := c.UserContext()

	turn, err := s.prepareTurn(ctx, req)
	if errors.Is(err, conversation.ErrInvalidID) {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "chat_id must be a UUID"})
	}
	if err != nil {
		s.logger.Error("preparing chat turn failed", "chat_id", req.ChatID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to save message"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The stream writer runs after this handler returns, so it must not
	// touch c.
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		s.streamTurn(turn, w)
	})

	return nil
}

// prepareTurn resolves the conversation, loads its history and then
// appends the user message, so the history never contains the message
// being answered.
func (s *Server) prepareTurn(ctx context.Context, req ChatRequest) (chat.Turn, error) {
	store := s.config.Store
	turn := chat.Turn{ChatID: req.ChatID, Message: req.Message}

	if turn.ChatID == "" {
		rec, err := store.Create(ctx, conversation.TitleFromMessage(req.Message))
		if err != nil {
			return turn, err
		}
		turn.ChatID = rec.ID
	} else {
		if err := conversation.ValidateID(turn.ChatID); err != nil {
			return turn, err
		}

		rec, err := store.Get(ctx, turn.ChatID)
		switch {
		case conversation.IsNotFound(err):
			// Append creates it.
		case err != nil:
			return turn, err
		default:
			turn.History = rec.Messages
		}
	}

	err := store.Append(ctx, turn.ChatID, conversation.Message{
		Role:      conversation.RoleUser,
		Content:   req.Message,
		Timestamp: s.now().UTC(),
	})
	return turn, err
}

// streamTurn relays events until the turn ends or a write fails. A failed
// write means the client went away: the turn is cancelled and its remaining
// events are discarded.
func (s *Server) streamTurn(turn chat.Turn, w *bufio.Writer) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := s.config.Runner.Run(ctx, turn)
	sw := sse.NewWriter(w)

	for ev := range events {
		if err := sw.Send(ev.Name, ev.Data); err != nil {
			s.logger.Info("client disconnected mid-stream", "chat_id", turn.ChatID, "error", err)
			cancel()
			for range events {
			}
			return
		}
	}
}
