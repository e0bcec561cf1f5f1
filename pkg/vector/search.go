package vector

import (
	"cmp"
	"fmt"
	"slices"
)

// Result is a single ranked chunk.
type Result struct {
	ChunkIndex int     `json:"index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// CosineSimilarity returns the cosine of the angle between a and b. A zero
// vector on either side yields 0 rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(a, norm(a), b, norm(b))
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	return dot / (normA * normB)
}

// Search ranks every chunk by cosine similarity to query and returns the
// best k, highest first. Equal scores keep chunk order. k is clamped to the
// index size; an empty index or k <= 0 returns no results.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if ix.Len() == 0 || k <= 0 {
		return []Result{}, nil
	}

	if len(query) != ix.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), ix.dims)
	}

	qNorm := norm(query)
	results := make([]Result, len(ix.chunks))
	for i, c := range ix.chunks {
		results[i] = Result{
			ChunkIndex: i,
			Text:       c.Text,
			Score:      cosine(c.Vector, ix.norms[i], query, qNorm),
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return results[:min(k, len(results))], nil
}
