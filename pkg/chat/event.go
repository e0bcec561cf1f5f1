package chat

import "github.com/papercomputeco/ragchat/pkg/conversation"

// Event names, in the order a turn emits them.
const (
	EventRagResults = "rag_results"
	EventToolResult = "mcp_result"
	EventMessage    = "message"
	EventDone       = "done"
	EventError      = "error"
)

// Event is one step of a chat turn. Data is one of the payload types below
// and is JSON-serializable.
type Event struct {
	Name string
	Data any
}

// Terminal reports whether no further events follow e.
func (e Event) Terminal() bool {
	return e.Name == EventDone || e.Name == EventError
}

type RagResultsPayload struct {
	Sources []conversation.Source `json:"sources"`
}

type ToolResultPayload struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

type MessagePayload struct {
	Content string `json:"content"`
}

type DonePayload struct {
	ChatID string `json:"chat_id"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
