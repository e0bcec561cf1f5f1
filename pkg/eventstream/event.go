package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ragchat/pkg/conversation"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after an assistant reply is persisted.
	EventTypeTurnCompleted = "ragchat.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed
// chat turn.
type TurnCompletedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	ChatID        string          `json:"chat_id"`
	Source        EventSource     `json:"source"`
	RequestMeta   TurnRequestMeta `json:"request_meta"`
	Turn          Turn            `json:"turn"`
}

// EventSource identifies the model that produced the turn.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// TurnRequestMeta captures request lifecycle metadata for the event.
type TurnRequestMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// Turn is the user message and the reply it produced.
type Turn struct {
	UserMessage      string                `json:"user_message"`
	AssistantMessage string                `json:"assistant_message"`
	Sources          []conversation.Source `json:"sources"`
	Tool             *ToolCall             `json:"tool,omitempty"`
}

// ToolCall records the tool consulted during the turn.
type ToolCall struct {
	Name   string `json:"name"`
	Result string `json:"result"`
	Status string `json:"status"`
}

// NewTurnCompletedEvent fills the envelope fields of a new event.
func NewTurnCompletedEvent(chatID string, src EventSource, started, completed time.Time, turn Turn) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     completed.UTC(),
		ChatID:        chatID,
		Source:        src,
		RequestMeta: TurnRequestMeta{
			StartedAt:   started.UTC(),
			CompletedAt: completed.UTC(),
			DurationMs:  completed.Sub(started).Milliseconds(),
		},
		Turn: turn,
	}
}
