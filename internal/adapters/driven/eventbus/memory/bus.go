// Package memory provides an in-process EventBus.
//
// Each subscriber owns a buffered channel. Publishing never blocks: an
// event that does not fit in a subscriber's buffer is dropped for that
// subscriber only.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("event bus closed")

// Verify interface compliance.
var _ driven.EventBus = (*Bus)(nil)

// Bus fans events out to subscribers of a topic.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan domain.Event
	nextID uint64
	buffer int
	closed bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[string]map[uint64]chan domain.Event),
		buffer: DefaultBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers event to every current subscriber of topic.
func (b *Bus) Publish(_ context.Context, topic string, event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for id, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
			logger.Debug("Dropping %s event for slow subscriber %d on %s", event.Type, id, topic)
		}
	}
	return nil
}

// Subscribe registers a subscriber on topic. The subscription ends when
// cancel is called, ctx is done, or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan domain.Event, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, ErrClosed
	}

	b.nextID++
	id := b.nextID
	ch := make(chan domain.Event, b.buffer)
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]chan domain.Event)
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			b.unsubscribe(topic, id)
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

	return ch, cancel, nil
}

// Subscribers returns the number of subscribers on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close closes every subscriber channel. Further calls are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for topic, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subs, topic)
	}
	return nil
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}
