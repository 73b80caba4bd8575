// Package events provides the in-process notification bus the core raises
// change topics on after successful local mutations and merges. Delivery is
// fire-and-forget: a subscriber that falls behind loses notifications rather
// than blocking the mutation path, which is safe because consumers re-read
// the collections on every notification anyway.
package events

import "sync"

// Topic names a collection whose contents changed.
type Topic string

const (
	TopicSitesChanged       Topic = "sites-changed"
	TopicInspectionsChanged Topic = "inspections-changed"
)

// Bus fans change topics out to subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]chan Topic
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]chan Topic)}
}

// Subscribe returns a channel that receives each of the given topics when
// published. The channel is buffered; notifications are dropped when the
// subscriber is not keeping up.
func (b *Bus) Subscribe(topics ...Topic) <-chan Topic {
	ch := make(chan Topic, 8)

	b.mu.Lock()
	for _, t := range topics {
		b.subs[t] = append(b.subs[t], ch)
	}
	b.mu.Unlock()

	return ch
}

// Publish notifies every subscriber of the topic without blocking.
func (b *Bus) Publish(topic Topic) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[topic] {
		select {
		case ch <- topic:
		default:
			// Subscriber buffer full, drop to avoid blocking
		}
	}
}
