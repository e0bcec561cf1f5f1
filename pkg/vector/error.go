package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch is returned when vectors in an index, or a query
	// and an index, do not share one dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidSnapshot is returned when a snapshot file cannot be read
	// back into a consistent index.
	ErrInvalidSnapshot = errors.New("invalid index snapshot")
)
