// Package eventbus publishes workflow events over watermill.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/flowdeck/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

type WatermillPublisher struct {
	publisher message.Publisher
}

func NewWatermillPublisher(pub message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: pub}
}

// Publish sends event to events.Topic. key is set as message metadata so
// partitioned brokers keep events of one workflow in order.
func (p *WatermillPublisher) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return p.publisher.Publish(events.Topic, msg)
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
