package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// EventBus fans events out to current subscribers of a topic.
// Delivery is best-effort with no persistence or replay.
type EventBus interface {
	// Publish sends an event to a topic.
	Publish(ctx context.Context, topic string, event domain.Event) error

	// Subscribe returns a channel of events for a topic and a cancel
	// function that unsubscribes and closes the channel.
	Subscribe(ctx context.Context, topic string) (<-chan domain.Event, func(), error)

	// Close releases resources and closes all subscriptions.
	Close() error
}
