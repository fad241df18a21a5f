package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/model"
)

// Notifier publishes user notifications on the bus.
type Notifier struct {
	bus *Bus
}

// NewNotifier creates a Notifier publishing on bus.
func NewNotifier(bus *Bus) *Notifier {
	return &Notifier{bus: bus}
}

// Notify publishes body on the notification topic.
func (n *Notifier) Notify(body string) {
	if err := n.bus.Publish(model.TopicNotification, model.NotificationPayload{Body: body}); err != nil {
		logger.Warn("failed to publish notification", logger.Fields{"error": err})
	}
}

// Dialog shows blocking error modals through the bus. The UI answers an
// error_dialog event with a dialog_dismiss event carrying the same id.
type Dialog struct {
	bus *Bus
	seq atomic.Uint64
}

// NewDialog creates a Dialog publishing on bus.
func NewDialog(bus *Bus) *Dialog {
	return &Dialog{bus: bus}
}

// ConfirmError publishes message and blocks until it is dismissed or ctx ends.
func (d *Dialog) ConfirmError(ctx context.Context, message string) error {
	id := fmt.Sprintf("dialog-%d", d.seq.Add(1))

	dismissed := make(chan struct{})
	var once sync.Once
	unsubscribe := d.bus.Subscribe(func(e Event) {
		var p model.DialogDismissPayload
		if err := e.Decode(&p); err == nil && p.ID == id {
			once.Do(func() { close(dismissed) })
		}
	}, model.TopicDialogDismiss)
	defer unsubscribe()

	if err := d.bus.Publish(model.TopicErrorDialog, model.ErrorDialogPayload{ID: id, Message: message}); err != nil {
		return err
	}

	select {
	case <-dismissed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AutoDismiss answers every error dialog immediately after handing the
// message to show. It backs headless front ends such as the CLI.
func AutoDismiss(bus *Bus, show func(message string)) func() {
	return bus.Subscribe(func(e Event) {
		var p model.ErrorDialogPayload
		if err := e.Decode(&p); err != nil {
			logger.Warn("malformed error dialog", logger.Fields{"error": err})
			return
		}
		if show != nil {
			show(p.Message)
		}
		_ = bus.Publish(model.TopicDialogDismiss, model.DialogDismissPayload{ID: p.ID})
	}, model.TopicErrorDialog)
}
