package guard

import (
	"context"
	"sync"

	"github.com/glorpus-work/gamekeep/internal/logger"
)

// ShutdownHandler is consulted by the host when the user asks to quit.
// While the exit guard is held it hides the window and defers the exit
// until every operation has finished.
type ShutdownHandler struct {
	guard *ExitGuard
	hide  func()
	exit  func()

	mu      sync.Mutex
	pending bool
}

// NewShutdownHandler wires the host's hide and exit callbacks. hide may be nil.
func NewShutdownHandler(g *ExitGuard, hide, exit func()) *ShutdownHandler {
	return &ShutdownHandler{guard: g, hide: hide, exit: exit}
}

// RequestExit exits immediately when idle and reports true. Otherwise it
// schedules the exit for when the guard empties and reports false.
// A deferred exit is dropped if ctx ends first.
func (h *ShutdownHandler) RequestExit(ctx context.Context) bool {
	if !h.guard.Active() {
		h.exit()
		return true
	}

	h.mu.Lock()
	if h.pending {
		h.mu.Unlock()
		return false
	}
	h.pending = true
	h.mu.Unlock()

	logger.Info("exit deferred until active operations finish", logger.Fields{"operations": h.guard.ActiveIDs()})
	if h.hide != nil {
		h.hide()
	}

	go func() {
		err := h.guard.Wait(ctx)

		h.mu.Lock()
		h.pending = false
		h.mu.Unlock()

		if err != nil {
			logger.Warn("deferred exit abandoned", logger.Fields{"error": err})
			return
		}
		h.exit()
	}()
	return false
}

// Pending reports whether an exit is waiting on the guard.
func (h *ShutdownHandler) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}
