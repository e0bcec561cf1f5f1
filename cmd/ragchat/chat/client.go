package chatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/ragchat/api"
	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/sse"
)

// errIncompleteStream is returned when the response ends before a done or
// error event.
var errIncompleteStream = errors.New("stream ended before the reply finished")

// turnResult is everything the server streamed for one turn.
type turnResult struct {
	ChatID  string
	Content string
	Sources []conversation.Source
	Tool    *chat.ToolResultPayload
}

// turnHandlers receive events as they arrive. Any may be nil.
type turnHandlers struct {
	OnSources func([]conversation.Source)
	OnTool    func(chat.ToolResultPayload)
	OnToken   func(string)
}

// sendTurn posts one message to POST /api/chat and consumes the SSE reply.
// Raw event bytes are copied to transcript when it is non-nil.
func sendTurn(ctx context.Context, client *http.Client, apiTarget string, body api.ChatRequest, transcript io.Writer, h turnHandlers) (*turnResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(apiTarget, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ragchat API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr llm.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("chat request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("chat request failed (HTTP %d): %s", resp.StatusCode, string(raw))
	}

	result := &turnResult{ChatID: body.ChatID}
	var content strings.Builder

	reader := sse.NewTeeReader(resp.Body, transcript)
	for {
		ev, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			return nil, errIncompleteStream
		}

		switch ev.Type {
		case chat.EventRagResults:
			var p chat.RagResultsPayload
			if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
				return nil, fmt.Errorf("decoding %s event: %w", ev.Type, err)
			}
			result.Sources = p.Sources
			if h.OnSources != nil {
				h.OnSources(p.Sources)
			}

		case chat.EventToolResult:
			var p chat.ToolResultPayload
			if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
				return nil, fmt.Errorf("decoding %s event: %w", ev.Type, err)
			}
			result.Tool = &p
			if h.OnTool != nil {
				h.OnTool(p)
			}

		case chat.EventMessage:
			var p chat.MessagePayload
			if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
				return nil, fmt.Errorf("decoding %s event: %w", ev.Type, err)
			}
			content.WriteString(p.Content)
			if h.OnToken != nil {
				h.OnToken(p.Content)
			}

		case chat.EventDone:
			var p chat.DonePayload
			if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
				return nil, fmt.Errorf("decoding %s event: %w", ev.Type, err)
			}
			result.ChatID = p.ChatID
			result.Content = content.String()
			return result, nil

		case chat.EventError:
			var p chat.ErrorPayload
			if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
				return nil, fmt.Errorf("decoding %s event: %w", ev.Type, err)
			}
			return nil, fmt.Errorf("server error: %s", p.Error)
		}
	}
}
