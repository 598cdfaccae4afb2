package scorm

import (
	"log/slog"
	"time"

	"github.com/aretw0/scorm/internal/runtime"
	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
)

// Version is the library version reported by the CLI.
const Version = "0.4.0"

// API is one SCORM 2004 API instance, the object a SCO finds as window.API_1484_11.
// It wraps the internal runtime and exposes the eight RTE methods.
//
// Each API serves exactly one SCO launch. It is not safe for concurrent use;
// hosts that serve calls from several goroutines should go through session.Manager.
type API struct {
	runtime *runtime.Engine
	opts    []runtime.EngineOption
	logger  *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithSeed pre-populates the data store before Initialize (learner identity,
// launch data, values of a resumed attempt). Seeded values bypass access rules.
func WithSeed(seed map[string]string) Option {
	return func(a *API) {
		a.opts = append(a.opts, runtime.WithSeed(seed))
	}
}

// WithHooks registers the persistence callbacks and observers.
func WithHooks(hooks domain.Hooks) Option {
	return func(a *API) {
		a.opts = append(a.opts, runtime.WithHooks(hooks))
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithRegistry replaces the SCORM 2004 data model with a custom one.
func WithRegistry(reg *cmi.Registry) Option {
	return func(a *API) {
		a.opts = append(a.opts, runtime.WithRegistry(reg))
	}
}

// WithClock overrides the time source of call events.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.opts = append(a.opts, runtime.WithClock(now))
	}
}

// New creates an API instance in the NotInitialized state.
func New(opts ...Option) *API {
	a := &API{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger != nil {
		a.opts = append(a.opts, runtime.WithLogger(a.logger))
	}
	a.runtime = runtime.NewEngine(a.opts...)
	a.opts = nil
	return a
}

// Initialize begins the communication session. param must be "".
func (a *API) Initialize(param string) string { return a.runtime.Initialize(param) }

// Terminate ends the communication session. param must be "".
func (a *API) Terminate(param string) string { return a.runtime.Terminate(param) }

// GetValue returns the value of a data model element, or "" on failure.
func (a *API) GetValue(element string) string { return a.runtime.GetValue(element) }

// SetValue assigns a data model element.
func (a *API) SetValue(element, value string) string { return a.runtime.SetValue(element, value) }

// Commit asks the host to persist the data store. param must be "".
func (a *API) Commit(param string) string { return a.runtime.Commit(param) }

// GetLastError returns the error code of the previous call.
func (a *API) GetLastError() string { return a.runtime.GetLastError() }

// GetErrorString returns the standard text of an error code. Like every RTE
// call it resets the error register to 0.
func (a *API) GetErrorString(code string) string { return a.runtime.GetErrorString(code) }

// GetDiagnostic returns detail about an error code, then resets the error register.
// An empty code describes the previous failure.
func (a *API) GetDiagnostic(code string) string { return a.runtime.GetDiagnostic(code) }

// ErrorString returns the standard text of code without touching any session.
func ErrorString(code domain.ErrorCode) string { return runtime.ErrorString(code.String()) }

// State reports the lifecycle state. It is for hosts; SCOs never see it.
func (a *API) State() domain.State { return a.runtime.State() }

// LastError returns the error register for hosts and transports. Unlike
// GetLastError it is not reported to OnCall observers.
func (a *API) LastError() domain.ErrorCode { return a.runtime.LastError() }

// Snapshot returns a copy of the data store.
func (a *API) Snapshot() domain.Snapshot { return a.runtime.Snapshot() }
