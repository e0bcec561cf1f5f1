package kafka

import (
	"context"
	"sync"

	kafkago "github.com/segmentio/kafka-go"
)

// RecordingWriter captures messages instead of sending them.
type RecordingWriter struct {
	mu       sync.Mutex
	Messages []kafkago.Message
	Err      error
	Closed   bool
}

func (w *RecordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.Messages = append(w.Messages, msgs...)
	return nil
}

func (w *RecordingWriter) Close() error {
	w.Closed = true
	return nil
}

// NewPublisherWithWriter builds a Publisher over w.
func NewPublisherWithWriter(w *RecordingWriter) *Publisher {
	return &Publisher{writer: w}
}
