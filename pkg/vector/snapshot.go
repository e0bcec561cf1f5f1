package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// snapshot is the on-disk document: parallel arrays of chunk text and
// embedding rows.
type snapshot struct {
	Chunks     []string    `json:"chunks"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Load reads a snapshot written by Save. A missing file is reported with an
// error matching os.ErrNotExist.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidSnapshot, path, err)
	}

	if len(snap.Chunks) != len(snap.Embeddings) {
		return nil, fmt.Errorf("%w: %d chunks but %d embeddings", ErrInvalidSnapshot, len(snap.Chunks), len(snap.Embeddings))
	}

	chunks := make([]Chunk, len(snap.Chunks))
	for i := range snap.Chunks {
		chunks[i] = Chunk{Text: snap.Chunks[i], Vector: snap.Embeddings[i]}
	}

	ix, err := NewIndex(chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	return ix, nil
}

// Save writes ix to path as one JSON document. The data goes to a temporary
// file in the same directory which is synced and renamed over path, so
// readers see either the old snapshot or the new one.
func Save(ix *Index, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	snap := snapshot{
		Chunks:     make([]string, ix.Len()),
		Embeddings: make([][]float32, ix.Len()),
	}
	for i := 0; i < ix.Len(); i++ {
		snap.Chunks[i] = ix.chunks[i].Text
		snap.Embeddings[i] = ix.chunks[i].Vector
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := json.NewEncoder(tmp).Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// IsNotExist reports whether err means the snapshot file is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
