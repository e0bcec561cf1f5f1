// Package eventstreamutils builds a Publisher from configuration.
package eventstreamutils

import (
	"fmt"

	"github.com/papercomputeco/ragchat/pkg/eventstream"
	"github.com/papercomputeco/ragchat/pkg/eventstream/kafka"
	"github.com/papercomputeco/ragchat/pkg/eventstream/nop"
)

// Provider names.
const (
	None  = "none"
	Kafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
}

// NewPublisher returns a nop publisher for "" and "none".
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", None:
		return nop.NewPublisher(), nil
	case Kafka:
		return kafka.NewPublisher(kafka.Config{Brokers: o.Brokers, Topic: o.Topic})
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", o.ProviderType)
	}
}
