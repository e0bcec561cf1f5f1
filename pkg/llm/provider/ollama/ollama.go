// Package ollama streams chat completions from Ollama's /api/chat endpoint.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/ragchat/pkg/llm"
)

// DefaultBaseURL is where a local Ollama listens.
const DefaultBaseURL = "http://localhost:11434"

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1024 * 1024

// Config configures the Ollama streamer.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds a whole completion, including streaming. Zero means no limit.
	Timeout time.Duration
}

type provider struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an Ollama streamer.
func New(cfg Config) llm.Streamer {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	return &provider{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type options struct {
	Temperature *float32 `json:"temperature,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

type chatChunk struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (p *provider) Name() string {
	return "ollama"
}

func (p *provider) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	body := chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		body.Options = &options{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(msg, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &stream{body: resp.Body, scanner: sc}, nil
}

type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *stream) Recv() (*llm.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var c chatChunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("ollama: decoding chunk: %w", err)
		}
		if c.Error != "" {
			return nil, fmt.Errorf("ollama: %s", c.Error)
		}

		s.done = c.Done
		return &llm.StreamChunk{
			Content:    c.Message.Content,
			Done:       c.Done,
			StopReason: c.DoneReason,
		}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("ollama: reading stream: %w", err)
	}

	// The body ended without a done chunk.
	return nil, errors.New("ollama: stream ended before completion")
}

func (s *stream) Close() error {
	return s.body.Close()
}
