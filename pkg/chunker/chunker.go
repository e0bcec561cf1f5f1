// Package chunker splits knowledge base text into overlapping word windows
// for embedding.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultSize is the number of words per window.
	DefaultSize = 500

	// DefaultOverlap is the number of words shared by consecutive windows.
	DefaultOverlap = 50

	// MinChunkChars is the trimmed length a window must exceed to be kept.
	MinChunkChars = 50
)

// ErrInvalidWindow is returned when the window size and overlap would not
// advance through the text.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Options configures Chunk.
type Options struct {
	Size    int
	Overlap int
}

// DefaultOptions returns the 500 word window with a 50 word overlap.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Validate reports whether the window advances.
func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidWindow, o.Size)
	}
	if o.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidWindow, o.Overlap)
	}
	if o.Overlap >= o.Size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidWindow, o.Overlap, o.Size)
	}
	return nil
}

// Chunk splits text on whitespace and emits windows of opts.Size words,
// starting a new window every opts.Size-opts.Overlap words. Windows are
// joined with single spaces and dropped unless their trimmed length exceeds
// MinChunkChars.
func Chunk(text string, opts Options) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	stride := opts.Size - opts.Overlap

	chunks := []string{}
	for i := 0; i < len(words); i += stride {
		end := min(i+opts.Size, len(words))

		chunk := strings.Join(words[i:end], " ")
		if len(strings.TrimSpace(chunk)) > MinChunkChars {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}
