package domain

import (
	"time"
)

// Method names of the SCORM 2004 API object.
const (
	MethodInitialize     = "Initialize"
	MethodTerminate      = "Terminate"
	MethodGetValue       = "GetValue"
	MethodSetValue       = "SetValue"
	MethodCommit         = "Commit"
	MethodGetLastError   = "GetLastError"
	MethodGetErrorString = "GetErrorString"
	MethodGetDiagnostic  = "GetDiagnostic"
)

// HookKind identifies which persistence hook fired.
type HookKind string

const (
	HookCommit    HookKind = "commit"
	HookTerminate HookKind = "terminate"
)

// CallEvent describes one completed API call. Values of SetValue are not included
// because they may carry learner data (suspend_data, responses).
type CallEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Element   string    `json:"element,omitempty"`
	Result    string    `json:"result"`
	Code      ErrorCode `json:"code"`
}

// HookEvent describes one persistence hook invocation.
type HookEvent struct {
	Kind     HookKind      `json:"kind"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// SnapshotHook receives a copy of the data store.
// Errors are reported to Hooks.OnHookError and never change the RTE outcome.
type SnapshotHook func(snapshot Snapshot) error

// Hooks defines the host callbacks of a session.
// Every field is optional.
type Hooks struct {
	OnCommit    SnapshotHook
	OnTerminate SnapshotHook

	// OnHookError is told about failures (returned errors or recovered panics) of OnCommit/OnTerminate.
	OnHookError func(kind HookKind, err error)

	// OnCall observes every API call after its error code is recorded.
	OnCall func(CallEvent)

	// OnHook observes every persistence hook invocation, successful or not.
	OnHook func(HookEvent)
}
