package llm

import (
	"context"
	"errors"
)

// ErrUnknownProvider is returned by provider factories for names they do
// not recognise.
var ErrUnknownProvider = errors.New("unknown llm provider")

// StreamChunk is one increment of a streamed completion.
type StreamChunk struct {
	// Content is the text fragment carried by this chunk. It may be empty
	// (role announcements, keep-alives, the final usage chunk).
	Content string `json:"content"`

	// Done is set on the last chunk a provider emits.
	Done bool `json:"done"`

	// StopReason (only present on the final chunk)
	StopReason string `json:"stop_reason,omitempty"`
}

// Stream yields chunks of one completion. Recv returns io.EOF once the
// completion has ended normally.
type Stream interface {
	Recv() (*StreamChunk, error)
	Close() error
}

// Streamer starts streamed chat completions.
type Streamer interface {
	// Name returns the canonical provider name (e.g., "openai", "ollama").
	Name() string

	// Stream opens a completion. Errors raised before the first chunk
	// (auth, unknown model, unreachable host) are returned here; later
	// failures surface from Recv.
	Stream(ctx context.Context, req *ChatRequest) (Stream, error)
}

// ErrorResponse is the JSON body returned by HTTP handlers on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
