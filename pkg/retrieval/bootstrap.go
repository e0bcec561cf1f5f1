package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/papercomputeco/ragchat/pkg/chunker"
	"github.com/papercomputeco/ragchat/pkg/embeddings"
	"github.com/papercomputeco/ragchat/pkg/logger"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

// BootstrapConfig locates the index a server starts with.
type BootstrapConfig struct {
	// Path is the snapshot file.
	Path string

	// Source is the knowledge base text built into an index when no
	// snapshot exists. Optional.
	Source string

	Embedder embeddings.Embedder
	Chunking chunker.Options
	Logger   *slog.Logger
}

// Bootstrap loads the snapshot at cfg.Path. When there is none it builds an
// index from cfg.Source and saves it to cfg.Path. When there is no source
// either it returns a nil index, which searches as empty.
//
// A corrupt snapshot or a failed build is returned as an error. A failed
// save is only logged: the built index is still usable.
func Bootstrap(ctx context.Context, cfg BootstrapConfig) (*vector.Index, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	ix, err := vector.Load(cfg.Path)
	if err == nil {
		log.Info("loaded index snapshot", "path", cfg.Path, "chunks", ix.Len(), "dimensions", ix.Dimensions())
		return ix, nil
	}
	if !vector.IsNotExist(err) {
		return nil, fmt.Errorf("loading index snapshot: %w", err)
	}

	if cfg.Source == "" {
		log.Warn("no index snapshot or knowledge base source, RAG will be empty", "path", cfg.Path)
		return nil, nil
	}

	text, err := os.ReadFile(cfg.Source)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("knowledge base source not found, RAG will be empty", "source", cfg.Source)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base: %w", err)
	}

	log.Info("building index", "source", cfg.Source)
	ix, err = vector.Build(ctx, string(text), cfg.Embedder, vector.BuildOptions{
		Chunking: cfg.Chunking,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	if err := vector.Save(ix, cfg.Path); err != nil {
		log.Warn("could not save index snapshot", "path", cfg.Path, "error", err)
	} else {
		log.Info("saved index snapshot", "path", cfg.Path, "chunks", ix.Len())
	}

	return ix, nil
}
