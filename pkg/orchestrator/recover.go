package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// fail is the Failed transition: the error dialog blocks until the user
// dismisses it, then the guard is released, completion is published so the
// UI leaves its busy state and the partially written directory is removed.
// An empty dir skips the cleanup.
func (e *Engine) fail(ctx context.Context, op *operation, cause error, dir string) error {
	phase := "transfer"
	if pkgerrors.IsPostProcess(cause) {
		phase = "post-process"
	}
	logger.Error("Operation failed", logger.Fields{"op": op.id, "phase": phase, "error": cause})

	if err := e.deps.Dialog.ConfirmError(ctx, failureMessage(op, cause)); err != nil {
		logger.Warn("Error dialog closed without dismissal", logger.Fields{"op": op.id, "error": err})
	}

	e.deps.Guard.Release(op.id)
	e.complete(op)

	if dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			logger.Error("Failed to clean up partial download", logger.Fields{"op": op.id, "dir": dir, "error": err})
		} else {
			logger.Debug("Removed partial download", logger.Fields{"op": op.id, "dir": dir})
		}
	}

	emit(e.deps.Hooks, op.event(StateFailed, cause.Error()))
	return cause
}

// cancelled ends an operation stopped through its context. Partial files
// are kept so a later run can skip what is already complete.
func (e *Engine) cancelled(op *operation, cause error) error {
	logger.Info("Operation cancelled", logger.Fields{"op": op.id})

	e.deps.Guard.Release(op.id)
	e.complete(op)
	emit(e.deps.Hooks, op.event(StateCancelled, ""))
	return fmt.Errorf("%w: %w", pkgerrors.ErrCancelled, cause)
}

func failureMessage(op *operation, err error) string {
	name := op.name
	if name == "" {
		name = op.payload.Install
	}
	var ie *transfer.ItemError
	if errors.As(err, &ie) {
		return fmt.Sprintf("Failed to %s %s: %s could not be downloaded (%v).", op.kind, name, ie.Item, ie.Err)
	}
	return fmt.Sprintf("Failed to %s %s: %v.", op.kind, name, err)
}
