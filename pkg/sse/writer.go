package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Encode writes one named event with data marshaled as JSON:
//
//	event: <name>
//	data: <json>
//
// json.Marshal never emits raw newlines, so the payload always fits on one
// data line.
func Encode(w io.Writer, name string, data any) error {
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("sse: invalid event name %q", name)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: encoding %s payload: %w", name, err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}

type flusher interface {
	Flush() error
}

// Writer encodes events and flushes after each one so the client sees every
// event as soon as it is produced.
type Writer struct {
	w     io.Writer
	flush func() error
}

// NewWriter wraps w. A w with its own Flush method (such as *bufio.Writer)
// is flushed directly; anything else is buffered first.
func NewWriter(w io.Writer) *Writer {
	if f, ok := w.(flusher); ok {
		return &Writer{w: w, flush: f.Flush}
	}
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, flush: bw.Flush}
}

// Send encodes and flushes one event. An error usually means the client
// has gone away.
func (w *Writer) Send(name string, data any) error {
	if err := Encode(w.w, name, data); err != nil {
		return err
	}
	return w.flush()
}
