// Package embeddings
package embeddings

import (
	"context"
	"strings"
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// Clean flattens newlines to spaces and trims surrounding whitespace, the
// form every provider client sends upstream.
func Clean(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

// Zero returns the vector used for blank input, which is never sent to a
// provider.
func Zero(dims int) []float32 {
	return make([]float32, dims)
}
