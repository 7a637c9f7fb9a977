// Package runtime handles event propagation and the background workers of
// the chat pipeline. It orchestrates without containing domain rules.
package runtime

import (
	"log/slog"
	"sync"

	"flyte/contract"
)

// Broker is the in-process pub/sub channel. Topics are room-scoped
// ("room/{roomId}") and user-scoped ("user/{userId}"); delivery is
// at-most-once to sinks subscribed at publish time. Transport adapters
// (WebSocket handlers etc.) subscribe one sink per live connection.
//
// Broker is safe for concurrent use by multiple goroutines.
type Broker struct {
	mu          sync.RWMutex
	log         *slog.Logger
	subscribers map[string]map[string]contract.Sink // topic -> subscriber id -> sink
}

func NewBroker(log *slog.Logger) *Broker {
	return &Broker{
		log:         log,
		subscribers: make(map[string]map[string]contract.Sink),
	}
}

// Subscribe registers a sink under a topic. A subscriber id seen twice on
// the same topic replaces its previous sink (reconnection).
func (b *Broker) Subscribe(topic, subscriberID string, sink contract.Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[topic]; !ok {
		b.subscribers[topic] = make(map[string]contract.Sink)
	}
	b.subscribers[topic][subscriberID] = sink
}

// Unsubscribe removes a subscriber from a topic. Empty topic entries are
// removed to avoid leaking topic keys over time.
func (b *Broker) Unsubscribe(topic, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sinks, ok := b.subscribers[topic]; ok {
		delete(sinks, subscriberID)
		if len(sinks) == 0 {
			delete(b.subscribers, topic)
		}
	}
}

// Publish delivers the payload to every sink currently subscribed to the
// topic. A failing sink is logged and skipped; it never blocks delivery to
// the others, and a topic without subscribers is a no-op.
func (b *Broker) Publish(topic string, payload any) error {
	b.mu.RLock()
	sinks := make([]contract.Sink, 0, len(b.subscribers[topic]))
	for _, sink := range b.subscribers[topic] {
		sinks = append(sinks, sink)
	}
	b.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Consume(topic, payload); err != nil {
			b.log.Warn("sink delivery failed", "topic", topic, "err", err)
		}
	}
	return nil
}
