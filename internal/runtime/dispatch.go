package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/scorm/pkg/domain"
)

// ErrHookPanic wraps a panic recovered from a persistence hook.
var ErrHookPanic = errors.New("hook panicked")

// dispatcher invokes the persistence hooks. Nothing a hook does, including
// panicking, reaches the SCO.
type dispatcher struct {
	hooks  domain.Hooks
	logger *slog.Logger
}

func (d *dispatcher) dispatch(kind domain.HookKind, snapshot domain.Snapshot) {
	hook := d.hookFor(kind)
	if hook == nil {
		return
	}

	start := time.Now()
	err := invoke(hook, snapshot)
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Warn("persistence hook failed", "hook", string(kind), "err", err)
		if d.hooks.OnHookError != nil {
			guard(d.logger, "OnHookError", func() { d.hooks.OnHookError(kind, err) })
		}
	} else {
		d.logger.Debug("persistence hook completed", "hook", string(kind), "duration", elapsed, "elements", len(snapshot))
	}

	if d.hooks.OnHook != nil {
		ev := domain.HookEvent{Kind: kind, Duration: elapsed, Err: err}
		guard(d.logger, "OnHook", func() { d.hooks.OnHook(ev) })
	}
}

func (d *dispatcher) hookFor(kind domain.HookKind) domain.SnapshotHook {
	switch kind {
	case domain.HookCommit:
		return d.hooks.OnCommit
	case domain.HookTerminate:
		return d.hooks.OnTerminate
	}
	return nil
}

func invoke(hook domain.SnapshotHook, snapshot domain.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
	}()
	return hook(snapshot)
}

// guard runs an observer callback, logging and swallowing any panic.
func guard(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("observer panicked", "observer", name, "panic", r)
		}
	}()
	fn()
}
