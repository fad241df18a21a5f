//go:generate mockgen -destination=./mocks/orchestrator.go . InstallStore,ManifestLoader,Publisher,Notifier,Dialog

package orchestrator

import (
	"context"

	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/model"
)

// InstallStore is the subset of the persistence layer used by the engine.
type InstallStore interface {
	GetInstallByID(id string) (*model.Install, error)
	GetManifestByID(id string) (*model.ManifestRecord, error)
	UpdateInstallAfterUpdate(id string, update model.InstallUpdate) error
}

// ManifestLoader loads a game manifest document by file name.
type ManifestLoader interface {
	LoadGameManifest(filename string) (*model.GameManifest, error)
}

// Publisher publishes events for the UI.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Notifier shows a user notification.
type Notifier interface {
	Notify(body string)
}

// Dialog shows a blocking error modal.
type Dialog interface {
	ConfirmError(ctx context.Context, message string) error
}

// Subscriber delivers trigger events to the engine.
type Subscriber interface {
	Subscribe(fn events.Handler, topics ...string) func()
}

// State is the lifecycle state of one operation.
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Event reports a state transition of one operation.
type Event struct {
	State     State
	ID        string // operation id
	InstallID string
	Kind      model.OperationKind
	Msg       string
}

// Hooks carries callbacks for state transitions.
type Hooks struct {
	OnEvent func(Event)
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}
