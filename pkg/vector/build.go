package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/ragchat/pkg/chunker"
	"github.com/papercomputeco/ragchat/pkg/embeddings"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Chunking chunker.Options

	// Progress, when set, is called after each chunk is embedded.
	Progress func(done, total int)

	Logger *slog.Logger
}

// Build chunks text and embeds each chunk in order. Any embedding failure
// aborts the build and no index is returned.
func Build(ctx context.Context, text string, embedder embeddings.Embedder, opts BuildOptions) (*Index, error) {
	texts, err := chunker.Chunk(text, opts.Chunking)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("chunked source text", "chunks", len(texts))
	}

	chunks := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := embedder.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		chunks = append(chunks, Chunk{Text: t, Vector: vec})

		if opts.Logger != nil && i%10 == 0 {
			opts.Logger.Debug("embedding chunks", "done", i, "total", len(texts))
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(texts))
		}
	}

	return NewIndex(chunks)
}
