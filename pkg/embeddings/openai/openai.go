// Package openai implements pkg/embeddings' Embedder client for OpenAI's
// embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/ragchat/pkg/embeddings"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultDimensions is the width of DefaultEmbeddingModel vectors.
	DefaultDimensions = 1536
)

// Embedder wraps the OpenAI embeddings endpoint.
type Embedder struct {
	client *goopenai.Client
	model  string
	dims   int
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// APIKey defaults to the OPENAI_API_KEY environment variable.
	APIKey string

	// BaseURL overrides the API base URL (e.g. an OpenAI compatible gateway).
	BaseURL string

	// Model defaults to DefaultEmbeddingModel.
	Model string

	// Dimensions defaults to DefaultDimensions.
	Dimensions int
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
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

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}

	return &Embedder{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		dims:   dims,
	}, nil
}

// Embed converts text into a vector embedding.
// Blank text yields a zero vector without a request.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = embeddings.Clean(text)
	if text == "" {
		return embeddings.Zero(e.dims), nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", vector.ErrEmbedding, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.dims {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, configured %d", vector.ErrDimensionMismatch, e.model, len(raw), e.dims)
	}

	v := make([]float32, len(raw))
	for i := range raw {
		v[i] = float32(raw[i])
	}

	return v, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
