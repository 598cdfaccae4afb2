package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/scorm/internal/logging"
	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
)

// Engine is the state machine behind one SCORM API instance.
// It owns the lifecycle, the data store and the last-error register.
//
// An Engine is not safe for concurrent use. SCO calls are sequential by
// contract; hosts that share an Engine across goroutines must serialize access
// (see pkg/session).
type Engine struct {
	state      domain.State
	lastError  domain.ErrorCode
	diagnostic string

	store      *cmi.Store
	dispatcher *dispatcher
	hooks      domain.Hooks
	logger     *slog.Logger
	now        func() time.Time

	registry *cmi.Registry
	seed     map[string]string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry replaces the default SCORM 2004 data model.
func WithRegistry(reg *cmi.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithSeed pre-populates the data store (learner identity, prior attempt data).
// Seeded values bypass access rules.
func WithSeed(seed map[string]string) EngineOption {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithHooks registers the host callbacks.
func WithHooks(hooks domain.Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for call events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine in the NotInitialized state.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		state:  domain.StateNotInitialized,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = cmi.DefaultRegistry()
	}
	e.store = cmi.NewStore(e.registry, e.seed)
	e.seed = nil
	e.dispatcher = &dispatcher{hooks: e.hooks, logger: e.logger}
	return e
}

// State reports the lifecycle state.
func (e *Engine) State() domain.State {
	return e.state
}

// LastError returns the error register without counting as an API call.
func (e *Engine) LastError() domain.ErrorCode {
	return e.lastError
}

// Snapshot returns a copy of the data store.
func (e *Engine) Snapshot() domain.Snapshot {
	return e.store.Snapshot()
}

// Initialize opens the communication session. The parameter must be "".
func (e *Engine) Initialize(param string) string {
	if e.state != domain.StateNotInitialized {
		e.fail(domain.AlreadyInitialized, "Initialize called while the session is %s", e.state)
		return e.done(domain.MethodInitialize, "", "false")
	}
	if param != "" {
		e.fail(domain.GeneralArgumentError, "Initialize expects an empty string parameter, got %q", param)
		return e.done(domain.MethodInitialize, "", "false")
	}
	e.state = domain.StateRunning
	e.succeed()
	return e.done(domain.MethodInitialize, "", "true")
}

// Terminate closes the session. The terminate hook sees the final snapshot,
// including the accumulated cmi.total_time.
func (e *Engine) Terminate(param string) string {
	if !e.running(domain.MethodTerminate) {
		return e.done(domain.MethodTerminate, "", "false")
	}
	if param != "" {
		e.fail(domain.GeneralArgumentError, "Terminate expects an empty string parameter, got %q", param)
		return e.done(domain.MethodTerminate, "", "false")
	}
	e.accumulateTime()
	e.dispatcher.dispatch(domain.HookTerminate, e.store.Snapshot())
	e.state = domain.StateTerminated
	e.succeed()
	return e.done(domain.MethodTerminate, "", "true")
}

// GetValue reads a data model element. Failures return "".
func (e *Engine) GetValue(element string) string {
	if !e.running(domain.MethodGetValue) {
		return e.done(domain.MethodGetValue, element, "")
	}
	if element == "" {
		e.fail(domain.GeneralGetFailure, "GetValue requires a data model element name")
		return e.done(domain.MethodGetValue, element, "")
	}
	value, err := e.store.Read(element)
	if err != nil {
		e.failWith(err)
		return e.done(domain.MethodGetValue, element, "")
	}
	e.succeed()
	return e.done(domain.MethodGetValue, element, value)
}

// SetValue writes a data model element.
func (e *Engine) SetValue(element, value string) string {
	if !e.running(domain.MethodSetValue) {
		return e.done(domain.MethodSetValue, element, "false")
	}
	if element == "" {
		e.fail(domain.GeneralSetFailure, "SetValue requires a data model element name")
		return e.done(domain.MethodSetValue, element, "false")
	}
	if err := e.store.Write(element, value); err != nil {
		e.failWith(err)
		return e.done(domain.MethodSetValue, element, "false")
	}
	e.succeed()
	return e.done(domain.MethodSetValue, element, "true")
}

// Commit hands the current snapshot to the commit hook. The parameter must be "".
// Hook failures never change the result.
func (e *Engine) Commit(param string) string {
	if !e.running(domain.MethodCommit) {
		return e.done(domain.MethodCommit, "", "false")
	}
	if param != "" {
		e.fail(domain.GeneralArgumentError, "Commit expects an empty string parameter, got %q", param)
		return e.done(domain.MethodCommit, "", "false")
	}
	e.dispatcher.dispatch(domain.HookCommit, e.store.Snapshot())
	e.succeed()
	return e.done(domain.MethodCommit, "", "true")
}

// GetLastError returns the code of the most recent call, as a decimal string.
func (e *Engine) GetLastError() string {
	return e.done(domain.MethodGetLastError, "", e.lastError.String())
}

// GetErrorString returns the standard text of code and clears the error register.
func (e *Engine) GetErrorString(code string) string {
	text := ErrorString(code)
	e.succeed()
	return e.done(domain.MethodGetErrorString, "", text)
}

// GetDiagnostic returns detail about code and clears the error register. An empty
// code, or the code of the last failure, yields the diagnostic recorded by that
// failure; the register is read before it is cleared.
func (e *Engine) GetDiagnostic(code string) string {
	if code == "" {
		code = e.lastError.String()
	}
	text := Diagnostic(code)
	if c, ok := domain.ParseErrorCode(code); ok && c == e.lastError && e.diagnostic != "" {
		text = e.diagnostic
	}
	e.succeed()
	return e.done(domain.MethodGetDiagnostic, "", text)
}

// running gates data and termination calls on the Running state and records
// the method specific lifecycle error otherwise.
func (e *Engine) running(method string) bool {
	switch e.state {
	case domain.StateRunning:
		return true
	case domain.StateNotInitialized:
		e.fail(lifecycleCodes[method].before, "%s called before Initialize", method)
	default:
		e.fail(lifecycleCodes[method].after, "%s called after Terminate", method)
	}
	return false
}

func (e *Engine) accumulateTime() {
	session, ok := e.store.Raw("cmi.session_time")
	if !ok {
		return
	}
	total, err := e.store.Read("cmi.total_time")
	if err != nil {
		total = ""
	}
	sum, err := cmi.AddDurations(total, session)
	if err != nil {
		e.logger.Warn("total time not accumulated", "session_time", session, "total_time", total, "err", err)
		return
	}
	e.store.Put("cmi.total_time", sum)
	e.logger.Debug("accumulated total time", "session_time", session, "total_time", sum)
}

func (e *Engine) succeed() {
	e.lastError = domain.NoError
	e.diagnostic = ""
}

func (e *Engine) fail(code domain.ErrorCode, format string, args ...any) {
	e.lastError = code
	e.diagnostic = fmt.Sprintf(format, args...)
}

func (e *Engine) failWith(err error) {
	e.lastError = cmi.CodeOf(err)
	e.diagnostic = cmi.DiagnosticOf(err)
}

// done reports the call to the observers and returns result unchanged.
func (e *Engine) done(method, element, result string) string {
	if e.lastError != domain.NoError {
		e.logger.Debug("scorm call failed", "method", method, "element", element, "code", int(e.lastError), "diagnostic", e.diagnostic)
	}
	if e.hooks.OnCall != nil {
		ev := domain.CallEvent{
			Timestamp: e.now(),
			Method:    method,
			Element:   element,
			Result:    result,
			Code:      e.lastError,
		}
		guard(e.logger, "OnCall", func() { e.hooks.OnCall(ev) })
	}
	return result
}
