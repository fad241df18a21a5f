package progress

import "sync"

// Aggregator reduces per-item counters reported concurrently into one
// coherent current/total pair.
type Aggregator struct {
	mu      sync.Mutex
	known   uint64
	current map[string]uint64
	totals  map[string]uint64
	sink    func(current, total uint64)
}

// NewAggregator creates an aggregator. A non-zero total is reported as the
// overall total; otherwise the sum of item totals is used.
func NewAggregator(total uint64, sink func(current, total uint64)) *Aggregator {
	return &Aggregator{
		known:   total,
		current: make(map[string]uint64),
		totals:  make(map[string]uint64),
		sink:    sink,
	}
}

// Set records the counters of one item without reporting them.
func (a *Aggregator) Set(key string, current, total uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current[key] = current
	a.totals[key] = total
}

// Flush reports the aggregated counters once.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur, tot := a.sumLocked()
	a.sink(cur, tot)
}

// Snapshot returns the aggregated counters.
func (a *Aggregator) Snapshot() (current, total uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sumLocked()
}

func (a *Aggregator) sumLocked() (current, total uint64) {
	for _, c := range a.current {
		current += c
	}
	if a.known > 0 {
		return current, a.known
	}
	for _, t := range a.totals {
		total += t
	}
	return current, total
}
