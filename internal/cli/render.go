package cli

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/schollz/progressbar/v3"
)

// renderer draws the progress events of one operation kind as a terminal
// progress bar and prints notifications and error dialogs.
type renderer struct {
	out  io.Writer
	kind model.OperationKind

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int64
	done  int
}

func newRenderer(out io.Writer, kind model.OperationKind) *renderer {
	return &renderer{out: out, kind: kind}
}

// attach subscribes the renderer to bus and auto-dismisses error dialogs.
// The returned func detaches it.
func (r *renderer) attach(bus *events.Bus) func() {
	stopEvents := bus.Subscribe(r.handle, r.kind.ProgressTopic(), r.kind.CompleteTopic(), model.TopicNotification)
	stopDialogs := events.AutoDismiss(bus, func(msg string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.clearLocked()
		_, _ = fmt.Fprintf(r.out, "Error: %s\n", msg)
	})
	return func() {
		stopEvents()
		stopDialogs()
	}
}

func (r *renderer) handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Topic {
	case r.kind.ProgressTopic():
		var p model.ProgressPayload
		if err := e.Decode(&p); err != nil {
			logger.Warn("Malformed progress event", logger.Fields{"error": err})
			return
		}
		r.progressLocked(p)
	case r.kind.CompleteTopic():
		if r.bar != nil {
			_ = r.bar.Finish()
			r.clearLocked()
		}
		r.done++
	case model.TopicNotification:
		var p model.NotificationPayload
		if err := e.Decode(&p); err == nil {
			_, _ = fmt.Fprintln(r.out, p.Body)
		}
	}
}

func (r *renderer) progressLocked(p model.ProgressPayload) {
	current, err1 := strconv.ParseInt(p.Progress, 10, 64)
	total, err2 := strconv.ParseInt(p.Total, 10, 64)
	if err1 != nil || err2 != nil {
		logger.Warn("Non-numeric progress", logger.Fields{"progress": p.Progress, "total": p.Total})
		return
	}

	if r.bar == nil {
		r.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(p.Name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetWidth(30),
		)
		r.total = total
	}
	if total != r.total {
		r.bar.ChangeMax64(total)
		r.total = total
	}
	_ = r.bar.Set64(current)
}

func (r *renderer) clearLocked() {
	if r.bar != nil {
		_ = r.bar.Clear()
		r.bar = nil
		r.total = 0
		_, _ = fmt.Fprintln(r.out)
	}
}

// completions returns the number of completion events seen.
func (r *renderer) completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
