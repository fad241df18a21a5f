// Package guard keeps the process alive while transfers run and enforces
// one operation per install at a time.
package guard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
)

// ExitGuard is the set of active operation ids. Shutdown is refused while
// the set is non-empty, so overlapping operations never clear each other.
type ExitGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
	idle   chan struct{} // closed while the set is empty
}

// NewExitGuard creates an empty guard.
func NewExitGuard() *ExitGuard {
	idle := make(chan struct{})
	close(idle)
	return &ExitGuard{active: make(map[string]struct{}), idle: idle}
}

// Acquire marks opID active. Acquiring an id twice is a no-op.
func (g *ExitGuard) Acquire(opID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.active) == 0 {
		g.idle = make(chan struct{})
	}
	g.active[opID] = struct{}{}
}

// Release removes opID. Releasing an unknown id is a no-op.
func (g *ExitGuard) Release(opID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[opID]; !ok {
		return
	}
	delete(g.active, opID)
	if len(g.active) == 0 {
		close(g.idle)
	}
}

// Active reports whether any operation holds the guard.
func (g *ExitGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active) > 0
}

// Holds reports whether opID holds the guard.
func (g *ExitGuard) Holds(opID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[opID]
	return ok
}

// ActiveIDs returns the active operation ids, sorted.
func (g *ExitGuard) ActiveIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, 0, len(g.active))
	for id := range g.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Wait blocks until the set is empty or ctx ends.
func (g *ExitGuard) Wait(ctx context.Context) error {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inflight tracks installs with an active operation.
type Inflight struct {
	mu  sync.Mutex
	ids map[string]string // install id -> operation id
}

// NewInflight creates an empty tracker.
func NewInflight() *Inflight {
	return &Inflight{ids: make(map[string]string)}
}

// TryAcquire claims installID for opID or fails with ErrOperationInFlight.
func (f *Inflight) TryAcquire(installID, opID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if holder, busy := f.ids[installID]; busy {
		return fmt.Errorf("%s held by %s: %w", installID, holder, pkgerrors.ErrOperationInFlight)
	}
	f.ids[installID] = opID
	return nil
}

// Release frees installID if opID holds it.
func (f *Inflight) Release(installID, opID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ids[installID] == opID {
		delete(f.ids, installID)
	}
}

// Busy reports whether installID has an active operation.
func (f *Inflight) Busy(installID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[installID]
	return ok
}
