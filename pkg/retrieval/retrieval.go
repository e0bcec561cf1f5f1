// Package retrieval answers similarity queries against the current vector
// index. The index can be swapped at runtime (see Watch) without blocking
// readers.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/ragchat/pkg/embeddings"
	"github.com/papercomputeco/ragchat/pkg/logger"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 3

// Retriever embeds queries and searches the current index.
type Retriever struct {
	embedder embeddings.Embedder
	index    atomic.Pointer[vector.Index]
	topK     int
	logger   *slog.Logger
}

// Config configures a Retriever.
type Config struct {
	Embedder embeddings.Embedder

	// Index may be nil, in which case every search returns no results
	// until SetIndex is called.
	Index *vector.Index

	// TopK defaults to DefaultTopK.
	TopK int

	Logger *slog.Logger
}

// New creates a Retriever.
func New(cfg Config) *Retriever {
	r := &Retriever{
		embedder: cfg.Embedder,
		topK:     cfg.TopK,
		logger:   cfg.Logger,
	}
	if r.topK <= 0 {
		r.topK = DefaultTopK
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	if cfg.Index != nil {
		r.index.Store(cfg.Index)
	}
	return r
}

// SetIndex atomically replaces the index searched by subsequent queries.
func (r *Retriever) SetIndex(ix *vector.Index) {
	r.index.Store(ix)
}

// Index returns the index currently being searched, possibly nil.
func (r *Retriever) Index() *vector.Index {
	return r.index.Load()
}

// TopK returns the default result count.
func (r *Retriever) TopK() int {
	return r.topK
}

// Search returns the topK chunks most similar to query. topK <= 0 uses the
// configured default. An unset or empty index yields an empty result and
// the query is not embedded.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	ix := r.index.Load()
	if ix.Len() == 0 {
		return []vector.Result{}, nil
	}

	if topK <= 0 {
		topK = r.topK
	}

	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := ix.Search(q, topK)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("retrieved chunks", "query_len", len(query), "results", len(results))

	return results, nil
}
