// Package orchestrator runs install, update, repair and preload operations:
// it resolves the request, drives the protocol backend, streams progress and
// reconciles local state once the transfer is over.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/backend"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/guard"
	"github.com/glorpus-work/gamekeep/pkg/manifest"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/progress"
)

// Deps are the collaborators of an Engine. Guard and Inflight are created
// when nil.
type Deps struct {
	Store     InstallStore
	Loader    ManifestLoader
	Publisher Publisher
	Notifier  Notifier
	Dialog    Dialog
	Backends  *backend.Dispatcher
	Guard     *guard.ExitGuard
	Inflight  *guard.Inflight
	Hooks     Hooks
}

// Engine runs operations, one at a time per install.
type Engine struct {
	deps        Deps
	resolver    *manifest.Resolver
	broadcaster *progress.Broadcaster

	seq     atomic.Uint64
	wg      sync.WaitGroup
	mu      sync.Mutex
	cancels map[string]context.CancelFunc // install id -> cancel
	closed  bool
}

// New creates an Engine.
func New(deps Deps) *Engine {
	if deps.Guard == nil {
		deps.Guard = guard.NewExitGuard()
	}
	if deps.Inflight == nil {
		deps.Inflight = guard.NewInflight()
	}
	return &Engine{
		deps:        deps,
		resolver:    manifest.NewResolver(deps.Store, deps.Loader),
		broadcaster: progress.NewBroadcaster(deps.Publisher),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// Guard returns the exit guard held by running operations.
func (e *Engine) Guard() *guard.ExitGuard {
	return e.deps.Guard
}

// Register subscribes the engine to the start topics of every operation
// kind. Each trigger runs on its own goroutine under ctx.
func (e *Engine) Register(ctx context.Context, bus Subscriber) func() {
	topics := make([]string, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		topics = append(topics, k.StartTopic())
	}

	return bus.Subscribe(func(ev events.Event) {
		kind, ok := model.KindFromTopic(ev.Topic)
		if !ok {
			return
		}
		var payload model.DownloadPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Warn("Ignoring malformed trigger", logger.Fields{"topic": ev.Topic, "error": err})
			return
		}
		e.Go(ctx, kind, payload)
	}, topics...)
}

// Go runs the operation on a new goroutine. Errors are logged. Triggers
// arriving after Close are dropped.
func (e *Engine) Go(ctx context.Context, kind model.OperationKind, payload model.DownloadPayload) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		logger.Warn("Engine is shutting down, ignoring trigger", logger.Fields{"kind": kind, "install": payload.Install})
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		if err := e.Run(ctx, kind, payload); err != nil {
			logger.Warn("Operation ended with error", logger.Fields{
				"kind":    kind,
				"install": payload.Install,
				"error":   err,
			})
		}
	}()
}

// Wait blocks until every operation started with Go has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops accepting operations through Go and waits for the running ones.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// Cancel stops the running operation of installID. It reports whether
// there was one.
func (e *Engine) Cancel(installID string) bool {
	e.mu.Lock()
	cancel, ok := e.cancels[installID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Busy reports whether installID has an operation in flight.
func (e *Engine) Busy(installID string) bool {
	return e.deps.Inflight.Busy(installID)
}

type operation struct {
	id      string
	kind    model.OperationKind
	payload model.DownloadPayload
	res     *manifest.Resolution
	plan    *backend.Plan
	name    string
}

func (op *operation) event(state State, msg string) Event {
	return Event{State: state, ID: op.id, InstallID: op.payload.Install, Kind: op.kind, Msg: msg}
}

// Run executes one operation on the calling goroutine and returns once it
// reached a terminal state. The returned error is informational: every
// user-visible outcome has already been published.
func (e *Engine) Run(ctx context.Context, kind model.OperationKind, payload model.DownloadPayload) error {
	op := &operation{
		id:      fmt.Sprintf("%s-%s-%d", kind, payload.Install, e.seq.Add(1)),
		kind:    kind,
		payload: payload,
	}

	if err := e.deps.Inflight.TryAcquire(payload.Install, op.id); err != nil {
		return err
	}
	defer e.deps.Inflight.Release(payload.Install, op.id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancels[payload.Install] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, payload.Install)
		e.mu.Unlock()
	}()

	emit(e.deps.Hooks, op.event(StatePending, ""))

	res, err := e.resolver.Resolve(ctx, kind, payload)
	if err != nil {
		if pkgerrors.IsResolution(err) {
			logger.Error("Install records are inconsistent", logger.Fields{"op": op.id, "error": err})
		} else {
			logger.Warn("Failed to resolve operation", logger.Fields{"op": op.id, "error": err})
		}
		return err
	}
	op.res = res
	op.name = res.DisplayName()

	if res.NoPreload {
		logger.Info("No preload available", logger.Fields{"op": op.id})
		e.complete(op)
		return nil
	}

	b, err := e.deps.Backends.Select(res.Metadata.DownloadMode)
	if err != nil {
		logger.Error("Cannot run operation", logger.Fields{"op": op.id, "error": err})
		e.complete(op)
		return err
	}

	plan, err := b.Plan(backend.Job{Resolution: res, Biz: payload.Biz, Region: payload.Region})
	if errors.Is(err, pkgerrors.ErrNoApplicableFile) {
		logger.Info("Nothing to transfer", logger.Fields{"op": op.id, "reason": err})
		e.complete(op)
		return nil
	}
	if err != nil {
		return e.fail(ctx, op, err, "")
	}
	op.plan = plan

	return e.execute(ctx, op, b)
}

// execute runs the Active state: transfer then finalize.
func (e *Engine) execute(ctx context.Context, op *operation, b backend.Backend) error {
	e.deps.Guard.Acquire(op.id)
	emit(e.deps.Hooks, op.event(StateActive, string(op.plan.Mode)))
	logger.Debug("Operation active", logger.Fields{
		"op":     op.id,
		"mode":   op.plan.Mode,
		"target": op.plan.TargetDir,
		"files":  len(op.plan.Files),
	})

	stream := e.broadcaster.Start(op.name, op.kind.ProgressTopic())
	stream.Report(0, progress.InitialTotal)

	err := b.Transfer(ctx, op.plan, stream.Func())
	if err == nil {
		err = b.Finalize(ctx, op.plan)
	}
	stream.Close()
	logger.Debug("Progress stream closed", logger.Fields{"op": op.id, "ticks": stream.Published()})

	switch {
	case err != nil && ctx.Err() != nil:
		return e.cancelled(op, err)
	case err != nil:
		return e.fail(ctx, op, err, op.plan.TargetDir)
	}

	e.persist(op)
	e.deps.Guard.Release(op.id)
	e.complete(op)
	e.deps.Notifier.Notify(successMessage(op))
	emit(e.deps.Hooks, op.event(StateCompleted, ""))
	return nil
}

// persist records the new version of an installed or updated game.
// Failures are logged; the files on disk are already final. Installs with
// SkipVersionUpdate keep their recorded version across updates.
func (e *Engine) persist(op *operation) {
	if op.kind != model.OpInstall && op.kind != model.OpUpdate {
		return
	}
	md := op.res.Metadata
	version := md.Version
	if op.kind == model.OpUpdate && op.res.Install.SkipVersionUpdate {
		version = op.res.Install.Version
		logger.Debug("Keeping recorded version", logger.Fields{"op": op.id, "version": version, "available": md.Version})
	}
	err := e.deps.Store.UpdateInstallAfterUpdate(op.res.Install.ID, model.InstallUpdate{
		Name:       op.name,
		Icon:       md.GameIcon,
		Background: md.GameBackground,
		Version:    version,
	})
	if err != nil {
		logger.Error("Failed to record install version", logger.Fields{"op": op.id, "version": version, "error": err})
	}
}

func (e *Engine) complete(op *operation) {
	if err := e.deps.Publisher.Publish(op.kind.CompleteTopic(), model.CompletePayload{Name: op.name}); err != nil {
		logger.Warn("Failed to publish completion", logger.Fields{"op": op.id, "error": err})
	}
}

var pastTense = map[model.OperationKind]string{
	model.OpInstall: "installed",
	model.OpUpdate:  "updated",
	model.OpRepair:  "repaired",
	model.OpPreload: "preloaded",
}

func successMessage(op *operation) string {
	return fmt.Sprintf("%s %s successfully.", op.name, pastTense[op.kind])
}
