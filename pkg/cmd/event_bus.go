package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowdeck/pkg/eventbus"
)

// NewEventPublisher returns the publisher for provider, or nil when events
// are disabled ("" or "none").
func NewEventPublisher(provider string, brokers []string, logger *slog.Logger) (eventbus.Publisher, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "kafka":
		pub, err := eventbus.NewKafkaPublisher(brokers, watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, err
		}

		return pub, nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
