package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/ragchat/pkg/eventstream"
)

// MockPublisher records published turn events.
type MockPublisher struct {
	// Err is returned by every PublishTurn call when set.
	Err error

	mu     sync.Mutex
	events []*eventstream.TurnCompletedEvent
	closed bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns the published events, in order.
func (m *MockPublisher) Events() []*eventstream.TurnCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.TurnCompletedEvent(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (m *MockPublisher) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
