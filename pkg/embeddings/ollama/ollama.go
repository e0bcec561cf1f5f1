// Package ollama implements embeddings.Embedder against a local Ollama
// server's /api/embed endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/ragchat/pkg/embeddings"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "nomic-embed-text"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds one embed request. Cold model loads are slow.
	DefaultTimeout = 2 * time.Minute
)

// Embedder calls Ollama's embedding API.
type Embedder struct {
	endpoint string
	model    string
	dims     int
	client   *http.Client
}

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to DefaultEmbeddingModel.
	Model string

	// Dimensions, when set, is enforced on every returned vector and sizes
	// the zero vector for blank input.
	Dimensions int

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates an Ollama embedder. No request is made until Embed.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	e := &Embedder{
		endpoint: DefaultBaseURL + "/api/embed",
		model:    DefaultEmbeddingModel,
		dims:     cfg.Dimensions,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	if cfg.BaseURL != "" {
		e.endpoint = cfg.BaseURL + "/api/embed"
	}
	if cfg.Model != "" {
		e.model = cfg.Model
	}
	if cfg.Timeout > 0 {
		e.client.Timeout = cfg.Timeout
	}

	return e, nil
}

// Embed converts text into a vector embedding.
// Blank text yields a zero vector without a request.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = embeddings.Clean(text)
	if text == "" {
		return embeddings.Zero(e.dims), nil
	}

	var out embedResponse
	if err := e.post(ctx, embedRequest{Model: e.model, Input: text}, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
	}

	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	v := out.Embeddings[0]
	if e.dims > 0 && len(v) != e.dims {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, configured %d", vector.ErrDimensionMismatch, e.model, len(v), e.dims)
	}

	return v, nil
}

func (e *Embedder) post(ctx context.Context, body embedRequest, out *embedResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
