package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// OpenFile returns a JSON logger appending to path, creating its directory
// if needed. The returned closer closes the file.
func OpenFile(path string, opts ...Option) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	opts = append(opts, WithJSON(true), WithPretty(false), WithWriter(f))
	return New(opts...), f, nil
}

// Tee returns console fanned out to a JSON log at path. An empty path
// returns console unchanged and a no-op closer.
func Tee(console *slog.Logger, path string, opts ...Option) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return console, io.NopCloser(nil), nil
	}

	fileLog, closer, err := OpenFile(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return Multi(console, fileLog), closer, nil
}
