// Package events implements the in-process publish/subscribe fabric the
// orchestration engine and the UI bridge talk through.
package events

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Event is one message on the bus.
type Event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Topic, err)
	}
	return nil
}

// Handler receives events synchronously on the publishing goroutine.
// Handlers that block must hand work off to their own goroutine.
type Handler func(Event)

type subscriber struct {
	topics map[string]struct{}
	fn     Handler
}

func (s subscriber) wants(topic string) bool {
	if s.topics == nil {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// Bus delivers every published event to the matching subscribers in
// subscription order. A single publisher therefore observes its events
// delivered in publish order.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]subscriber)}
}

// Subscribe registers fn for topics. No topics means every topic.
// The returned func removes the subscription.
func (b *Bus) Subscribe(fn Handler, topics ...string) func() {
	s := subscriber{fn: fn}
	if len(topics) > 0 {
		s.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			s.topics[t] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Channel subscribes a buffered channel to topics. Delivery blocks the
// publisher while the buffer is full; the returned func stops delivery.
// The channel is never closed.
func (b *Bus) Channel(size int, topics ...string) (<-chan Event, func()) {
	ch := make(chan Event, size)
	done := make(chan struct{})
	unsubscribe := b.Subscribe(func(e Event) {
		select {
		case ch <- e:
		case <-done:
		}
	}, topics...)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			unsubscribe()
			close(done)
		})
	}
}

// Publish encodes payload as JSON and delivers it on topic.
func (b *Bus) Publish(topic string, payload any) error {
	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
		raw = json.RawMessage("{}")
	case json.RawMessage:
		raw = p
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", topic, err)
		}
		raw = data
	}
	b.Dispatch(Event{Topic: topic, Payload: raw})
	return nil
}

// Dispatch delivers an already encoded event.
func (b *Bus) Dispatch(e Event) {
	for _, s := range b.snapshot() {
		if s.wants(e.Topic) {
			s.fn(e)
		}
	}
}

func (b *Bus) snapshot() []subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]subscriber, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.subs[id])
	}
	return out
}
