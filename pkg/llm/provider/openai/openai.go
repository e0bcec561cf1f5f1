// Package openai streams chat completions from OpenAI's chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/ragchat/pkg/llm"
)

// Config configures the OpenAI streamer.
type Config struct {
	// APIKey defaults to the OPENAI_API_KEY environment variable.
	APIKey string

	// BaseURL overrides the API base URL (e.g. an OpenAI compatible gateway).
	BaseURL string

	// Timeout bounds a whole completion, including streaming. Zero means no limit.
	Timeout time.Duration
}

type provider struct {
	client *goopenai.Client
}

// New creates an OpenAI streamer.
func New(cfg Config) (llm.Streamer, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &provider{client: goopenai.NewClientWithConfig(clientCfg)}, nil
}

func (p *provider) Name() string {
	return "openai"
}

func (p *provider) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	creq := goopenai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   true,
	}
	if req.MaxTokens != nil {
		creq.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		creq.Temperature = *req.Temperature
	}

	s, err := p.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	return &stream{s: s}, nil
}

type stream struct {
	s *goopenai.ChatCompletionStream
}

// Recv returns the next content delta. io.EOF from the underlying stream
// is passed through unwrapped.
func (st *stream) Recv() (*llm.StreamChunk, error) {
	resp, err := st.s.Recv()
	if err != nil {
		return nil, err
	}

	chunk := &llm.StreamChunk{}
	for _, choice := range resp.Choices {
		chunk.Content += choice.Delta.Content
		if choice.FinishReason != "" {
			chunk.Done = true
			chunk.StopReason = string(choice.FinishReason)
		}
	}

	return chunk, nil
}

func (st *stream) Close() error {
	st.s.Close()
	return nil
}
