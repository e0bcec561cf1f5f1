// Package nop provides the publisher used when turn events are disabled.
package nop

import (
	"context"

	"github.com/papercomputeco/ragchat/pkg/eventstream"
)

// Publisher drops every turn event.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishTurn rejects nil events like the real publishers do and drops the
// rest.
func (*Publisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}
	return nil
}

func (*Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
