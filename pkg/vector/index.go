// Package vector provides the flat, in-memory vector index the retriever
// searches, along with building it from source text and persisting it as a
// single JSON snapshot.
package vector

import (
	"fmt"
	"math"
)

// Chunk is a unit of retrievable text and its embedding.
type Chunk struct {
	Text   string
	Vector []float32
}

// Index is an ordered, read-only set of chunks that share one dimension.
// It is safe for concurrent use once constructed.
type Index struct {
	chunks []Chunk
	norms  []float64
	dims   int
}

// NewIndex validates chunks and builds an Index over them. The slice is
// owned by the index afterwards.
func NewIndex(chunks []Chunk) (*Index, error) {
	ix := &Index{
		chunks: chunks,
		norms:  make([]float64, len(chunks)),
	}

	for i, c := range chunks {
		if i == 0 {
			ix.dims = len(c.Vector)
			if ix.dims == 0 {
				return nil, fmt.Errorf("%w: chunk 0 has an empty vector", ErrDimensionMismatch)
			}
		}
		if len(c.Vector) != ix.dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(c.Vector), ix.dims)
		}
		ix.norms[i] = norm(c.Vector)
	}

	return ix, nil
}

// Len returns the number of chunks.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

// Dimensions returns the vector width, 0 for an empty index.
func (ix *Index) Dimensions() int {
	if ix == nil {
		return 0
	}
	return ix.dims
}

// Chunk returns the chunk at position i.
func (ix *Index) Chunk(i int) Chunk {
	return ix.chunks[i]
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
