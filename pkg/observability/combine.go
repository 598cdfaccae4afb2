package observability

import "github.com/aretw0/scorm/pkg/domain"

// Combine merges the observer callbacks (OnCall, OnHook, OnHookError) of several Hooks.
// Persistence callbacks are not merged: a session has one owner for OnCommit and OnTerminate.
func Combine(hooks ...domain.Hooks) domain.Hooks {
	var (
		calls  []func(domain.CallEvent)
		events []func(domain.HookEvent)
		errs   []func(domain.HookKind, error)
	)
	for _, h := range hooks {
		if h.OnCall != nil {
			calls = append(calls, h.OnCall)
		}
		if h.OnHook != nil {
			events = append(events, h.OnHook)
		}
		if h.OnHookError != nil {
			errs = append(errs, h.OnHookError)
		}
	}

	var out domain.Hooks
	if len(calls) > 0 {
		out.OnCall = func(ev domain.CallEvent) {
			for _, fn := range calls {
				fn(ev)
			}
		}
	}
	if len(events) > 0 {
		out.OnHook = func(ev domain.HookEvent) {
			for _, fn := range events {
				fn(ev)
			}
		}
	}
	if len(errs) > 0 {
		out.OnHookError = func(kind domain.HookKind, err error) {
			for _, fn := range errs {
				fn(kind, err)
			}
		}
	}
	return out
}
