// Package redis provides an EventBus backed by Redis pub/sub.
//
// Events are JSON encoded and published on channels named
// "<prefix><topic>", so several processes sharing one Redis server
// see each other's document updates. Delivery is best-effort, as with
// the in-process bus.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

const (
	// DefaultPrefix namespaces channel names.
	DefaultPrefix = "ragpipe:"

	// DefaultBuffer is the per-subscriber channel capacity.
	DefaultBuffer = 64

	pingTimeout = 10 * time.Second
)

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("event bus closed")

// Verify interface compliance.
var _ driven.EventBus = (*Bus)(nil)

// Bus publishes and receives events through Redis channels.
type Bus struct {
	client *goredis.Client
	prefix string
	buffer int

	mu     sync.Mutex
	subs   map[*goredis.PubSub]struct{}
	closed bool
}

// NewClient builds a client from a redis:// URL or a bare host:port
// and checks the connection.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	var opts *goredis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		if redisURL == "" {
			return nil, fmt.Errorf("%w: redis url is required", domain.ErrInvalidInput)
		}
		opts = &goredis.Options{Addr: redisURL}
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}

// New wraps an existing client. The bus owns the client and closes it on Close.
func New(client *goredis.Client) *Bus {
	return &Bus{
		client: client,
		prefix: DefaultPrefix,
		buffer: DefaultBuffer,
		subs:   make(map[*goredis.PubSub]struct{}),
	}
}

// Channel returns the Redis channel name for a topic.
func (b *Bus) Channel(topic string) string {
	return b.prefix + topic
}

// Publish encodes event and publishes it on the topic channel.
func (b *Bus) Publish(ctx context.Context, topic string, event domain.Event) error {
	if b.isClosed() {
		return ErrClosed
	}

	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.Channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// Subscribe listens on the topic channel until cancel is called, ctx is
// done, or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan domain.Event, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, ErrClosed
	}
	pubsub := b.client.Subscribe(ctx, b.Channel(topic))
	b.subs[pubsub] = struct{}{}
	b.mu.Unlock()

	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		b.release(pubsub)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	out := make(chan domain.Event, b.buffer)
	messages := pubsub.Channel()

	go func() {
		defer close(out)
		for msg := range messages {
			event, err := decodeEvent(msg.Payload)
			if err != nil {
				logger.Warn("Ignoring malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- event:
			default:
				logger.Debug("Dropping %s event for slow subscriber on %s", event.Type, topic)
			}
		}
	}()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			b.release(pubsub)
		})
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}

	return out, cancel, nil
}

// Close ends every subscription and closes the client.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*goredis.PubSub]struct{})
	b.mu.Unlock()

	for pubsub := range subs {
		if err := pubsub.Close(); err != nil {
			logger.Debug("Closing redis subscription: %v", err)
		}
	}

	if err := b.client.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// release closes one subscription if the bus still tracks it.
func (b *Bus) release(pubsub *goredis.PubSub) {
	b.mu.Lock()
	_, ok := b.subs[pubsub]
	delete(b.subs, pubsub)
	b.mu.Unlock()

	if ok {
		if err := pubsub.Close(); err != nil {
			logger.Debug("Closing redis subscription: %v", err)
		}
	}
}

func encodeEvent(event domain.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	return payload, nil
}

func decodeEvent(payload string) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return domain.Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return event, nil
}
