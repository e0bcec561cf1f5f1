package llm

// ChatRequest is a provider-agnostic streaming chat completion request.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o-mini", "llama3.2")
	Model string `json:"model"`

	// Conversation messages, system prompt first.
	Messages []Message `json:"messages"`

	// Generation parameters. Nil leaves the provider default.
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}
