// Package progress turns backend byte counters into progress events.
//
// Backends report (current, total) by value into a Stream. A single
// goroutine per stream formats and publishes each tick, so payloads are
// never shared between goroutines and ticks are published in the order
// they were reported.
package progress

import (
	"sync"
	"sync/atomic"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/model"
)

// InitialTotal is the placeholder scale published before real totals are known.
const InitialTotal = 1000

// Publisher is the subset of the event bus used for progress.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Progress is one tick.
type Progress struct {
	Current uint64
	Total   uint64
}

// Broadcaster creates progress streams.
type Broadcaster struct {
	pub    Publisher
	buffer int
}

// NewBroadcaster creates a Broadcaster publishing through pub.
func NewBroadcaster(pub Publisher) *Broadcaster {
	return &Broadcaster{pub: pub, buffer: 64}
}

// Start opens a stream publishing payloads labelled name on topic.
func (b *Broadcaster) Start(name, topic string) *Stream {
	s := &Stream{
		name:  name,
		topic: topic,
		pub:   b.pub,
		ch:    make(chan Progress, b.buffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Stream is the progress channel of one operation.
type Stream struct {
	name  string
	topic string
	pub   Publisher

	mu     sync.RWMutex
	closed bool
	ch     chan Progress
	done   chan struct{}
	count  atomic.Uint64
}

func (s *Stream) run() {
	defer close(s.done)
	for p := range s.ch {
		if err := s.pub.Publish(s.topic, model.NewProgressPayload(s.name, p.Current, p.Total)); err != nil {
			logger.Warn("failed to publish progress", logger.Fields{"topic": s.topic, "error": err})
			continue
		}
		s.count.Add(1)
	}
}

// Report queues a tick. Reports after Close are dropped.
func (s *Stream) Report(current, total uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.ch <- Progress{Current: current, Total: total}
}

// Func adapts the stream to a plain callback.
func (s *Stream) Func() func(current, total uint64) {
	return s.Report
}

// Close stops the stream after every queued tick has been published.
// It is safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
	<-s.done
}

// Published returns the number of ticks published so far.
func (s *Stream) Published() uint64 {
	return s.count.Load()
}
