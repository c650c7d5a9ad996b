/**
 * @description
 * This file implements the real-time broadcast channel that connected
 * dashboard clients subscribe to. Delivery is fire-and-forget: an event is
 * handed to whoever is subscribed at publish time, with no buffering, replay,
 * or acknowledgment.
 *
 * @dependencies
 * - go.uber.org/zap: Structured logging for dropped/no-op publishes.
 */
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Publisher is the interface the deposit processor publishes through. It is
// constructor-injected so tests can substitute a no-op or failing
// implementation.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// NopPublisher discards every event. It stands in for the hub when streaming
// is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Event is a named payload broadcast to subscribers.
type Event struct {
	Name    string
	Payload any
}

// Subscription is one listener's handle on the hub. Receive from C; call
// Unsubscribe when done.
type Subscription struct {
	C   <-chan Event
	hub *Hub
	ch  chan Event
}

// Unsubscribe detaches the subscription from the hub. It is safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)
}

// Hub fans published events out to all current subscribers. Sends are
// non-blocking; a subscriber that cannot keep up loses events rather than
// stalling the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	logger *zap.Logger
}

// NewHub creates an empty hub. Each subscription gets a buffered channel of
// the given size; non-positive sizes fall back to 16.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new listener and returns its handle.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, hub: h, ch: ch}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// SubscriberCount returns the number of currently attached subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers the event to every subscriber attached at call time.
// Publishing with no subscribers is a logged no-op, never an error.
func (h *Hub) Publish(_ context.Context, event string, payload any) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.subs) == 0 {
		h.logger.Debug("no real-time subscribers connected, dropping event",
			zap.String("event", event))
		return nil
	}

	ev := Event{Name: event, Payload: payload}
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("slow real-time subscriber, dropping event",
				zap.String("event", event))
		}
	}
	return nil
}

// Fanout publishes each event through every wrapped publisher, collecting
// errors without letting one sink block another from being attempted.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event string, payload any) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, event, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
