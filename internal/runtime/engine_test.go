package runtime_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/scorm/internal/runtime"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func running(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	e := runtime.NewEngine(opts...)
	require.Equal(t, "true", e.Initialize(""))
	return e
}

func TestEngine_Lifecycle(t *testing.T) {
	e := runtime.NewEngine()
	assert.Equal(t, domain.StateNotInitialized, e.State())

	assert.Equal(t, "true", e.Initialize(""))
	assert.Equal(t, domain.StateRunning, e.State())
	assert.Equal(t, "0", e.GetLastError())

	assert.Equal(t, "true", e.Terminate(""))
	assert.Equal(t, domain.StateTerminated, e.State())
	assert.Equal(t, "0", e.GetLastError())
}

func TestEngine_LifecycleErrorCodes(t *testing.T) {
	type call func(e *runtime.Engine) string
	calls := map[string]struct {
		fn            call
		failed        string
		before, after string
	}{
		"GetValue":  {func(e *runtime.Engine) string { return e.GetValue("cmi.location") }, "", "122", "123"},
		"SetValue":  {func(e *runtime.Engine) string { return e.SetValue("cmi.location", "x") }, "false", "132", "133"},
		"Commit":    {func(e *runtime.Engine) string { return e.Commit("") }, "false", "142", "143"},
		"Terminate": {func(e *runtime.Engine) string { return e.Terminate("") }, "false", "142", "143"},
	}

	for name, tc := range calls {
		t.Run(name+"/before", func(t *testing.T) {
			e := runtime.NewEngine()
			assert.Equal(t, tc.failed, tc.fn(e))
			assert.Equal(t, tc.before, e.GetLastError())
			assert.Equal(t, domain.StateNotInitialized, e.State())
		})
		t.Run(name+"/after", func(t *testing.T) {
			e := running(t)
			require.Equal(t, "true", e.Terminate(""))
			assert.Equal(t, tc.failed, tc.fn(e))
			assert.Equal(t, tc.after, e.GetLastError())
			assert.Equal(t, domain.StateTerminated, e.State())
		})
	}
}

func TestEngine_InitializeTwice(t *testing.T) {
	e := running(t)
	assert.Equal(t, "false", e.Initialize(""))
	assert.Equal(t, "103", e.GetLastError())
	assert.Equal(t, domain.StateRunning, e.State())

	require.Equal(t, "true", e.Terminate(""))
	assert.Equal(t, "false", e.Initialize(""))
	assert.Equal(t, "103", e.GetLastError())
	assert.Equal(t, domain.StateTerminated, e.State())
}

func TestEngine_NonEmptyParameter(t *testing.T) {
	e := runtime.NewEngine()
	assert.Equal(t, "false", e.Initialize("x"))
	assert.Equal(t, "201", e.GetLastError())
	assert.Equal(t, domain.StateNotInitialized, e.State())

	require.Equal(t, "true", e.Initialize(""))
	assert.Equal(t, "false", e.Commit("now"))
	assert.Equal(t, "201", e.GetLastError())
	assert.Equal(t, "false", e.Terminate("bye"))
	assert.Equal(t, "201", e.GetLastError())
	assert.Equal(t, domain.StateRunning, e.State())
}

func TestEngine_StateCheckedBeforeArgument(t *testing.T) {
	e := runtime.NewEngine()
	assert.Equal(t, "false", e.Commit("x"))
	assert.Equal(t, "142", e.GetLastError())

	require.Equal(t, "true", e.Initialize(""))
	assert.Equal(t, "false", e.Initialize("x"))
	assert.Equal(t, "103", e.GetLastError())

	require.Equal(t, "true", e.Terminate(""))
	assert.Equal(t, "false", e.Initialize("x"))
	assert.Equal(t, "103", e.GetLastError())
	assert.Equal(t, "false", e.Terminate("x"))
	assert.Equal(t, "143", e.GetLastError())
}

func TestEngine_EmptyElementName(t *testing.T) {
	e := running(t)
	assert.Equal(t, "", e.GetValue(""))
	assert.Equal(t, "301", e.GetLastError())
	assert.Equal(t, "false", e.SetValue("", "x"))
	assert.Equal(t, "351", e.GetLastError())
}

func TestEngine_DataModelErrors(t *testing.T) {
	e := running(t)

	assert.Equal(t, "", e.GetValue("cmi.bogus"))
	assert.Equal(t, "401", e.GetLastError())

	assert.Equal(t, "false", e.SetValue("cmi.learner_id", "x"))
	assert.Equal(t, "404", e.GetLastError())

	assert.Equal(t, "false", e.SetValue("cmi.completion_status", "finished"))
	assert.Equal(t, "406", e.GetLastError())

	assert.Equal(t, "false", e.SetValue("cmi.score.scaled", "1.5"))
	assert.Equal(t, "407", e.GetLastError())

	assert.Equal(t, "true", e.SetValue("cmi.score.scaled", "-1"))
	assert.Equal(t, "0", e.GetLastError())
}

func TestEngine_FailedWriteLeavesStoreUnchanged(t *testing.T) {
	e := running(t)
	require.Equal(t, "true", e.SetValue("cmi.location", "page-2"))
	before := e.Snapshot()

	e.SetValue("cmi.location", strings.Repeat("x", 1001))
	assert.Equal(t, "407", e.GetLastError())
	assert.Equal(t, before, e.Snapshot())
	assert.Equal(t, "page-2", e.GetValue("cmi.location"))
}

func TestEngine_GetLastErrorIsPure(t *testing.T) {
	e := running(t)
	e.GetValue("cmi.nope")
	require.Equal(t, "401", e.GetLastError())
	assert.Equal(t, "401", e.GetLastError())
}

func TestEngine_ErrorStringResetsLastError(t *testing.T) {
	e := running(t)
	e.GetValue("cmi.nope")
	require.Equal(t, "401", e.GetLastError())

	assert.Equal(t, "Undefined Data Model Element", e.GetErrorString("401"))
	assert.Equal(t, "0", e.GetLastError())
}

func TestEngine_DiagnosticResetsLastError(t *testing.T) {
	e := running(t)
	e.GetValue("cmi.nope")
	require.Equal(t, "401", e.GetLastError())

	assert.Contains(t, e.GetDiagnostic(""), "cmi.nope")
	assert.Equal(t, "0", e.GetLastError())
	assert.Equal(t, runtime.Diagnostic("401"), e.GetDiagnostic("401"))
}

func TestEngine_GetErrorString(t *testing.T) {
	e := runtime.NewEngine()
	assert.Equal(t, "No Error", e.GetErrorString("0"))
	assert.Equal(t, "Already Initialized", e.GetErrorString("103"))
	assert.Equal(t, "Data Model Element Type Mismatch", e.GetErrorString("406"))
	assert.Equal(t, "Unknown error", e.GetErrorString("999"))
	assert.Equal(t, "Unknown error", e.GetErrorString("abc"))
	assert.Equal(t, "Unknown error", e.GetErrorString(""))
	assert.Equal(t, "Unknown error", e.GetErrorString("+401"))
	assert.Equal(t, "Unknown error", e.GetErrorString("0401"))
}

func TestEngine_GetDiagnostic(t *testing.T) {
	e := running(t)
	e.SetValue("cmi.completion_status", "done")

	last := e.GetDiagnostic("406")
	assert.Contains(t, last, "done")

	e.SetValue("cmi.completion_status", "done")
	assert.Equal(t, last, e.GetDiagnostic(""))

	assert.NotEmpty(t, e.GetDiagnostic("201"))
	assert.NotEqual(t, last, e.GetDiagnostic("201"))
	assert.NotEmpty(t, e.GetDiagnostic("12345"))
	assert.NotEmpty(t, e.GetDiagnostic("garbage"))
}

func TestEngine_SeedIsVisible(t *testing.T) {
	e := running(t, runtime.WithSeed(map[string]string{
		"cmi.learner_id":   "learner-1",
		"cmi.learner_name": "Doe, Jane",
	}))
	assert.Equal(t, "learner-1", e.GetValue("cmi.learner_id"))
	assert.Equal(t, "Doe, Jane", e.GetValue("cmi.learner_name"))
}

func TestEngine_CommitHookReceivesSnapshot(t *testing.T) {
	var got domain.Snapshot
	e := running(t, runtime.WithHooks(domain.Hooks{
		OnCommit: func(s domain.Snapshot) error {
			got = s
			return nil
		},
	}))
	require.Equal(t, "true", e.SetValue("cmi.location", "p1"))
	require.Equal(t, "true", e.Commit(""))
	assert.Equal(t, "p1", got["cmi.location"])

	got["cmi.location"] = "tampered"
	assert.Equal(t, "p1", e.GetValue("cmi.location"))
}

func TestEngine_HookFailuresAreIsolated(t *testing.T) {
	var reported []error
	var kinds []domain.HookKind
	hooks := domain.Hooks{
		OnCommit: func(domain.Snapshot) error {
			return errors.New("disk full")
		},
		OnTerminate: func(domain.Snapshot) error {
			panic("boom")
		},
		OnHookError: func(kind domain.HookKind, err error) {
			kinds = append(kinds, kind)
			reported = append(reported, err)
		},
	}
	e := running(t, runtime.WithHooks(hooks))

	assert.Equal(t, "true", e.Commit(""))
	assert.Equal(t, "0", e.GetLastError())

	assert.Equal(t, "true", e.Terminate(""))
	assert.Equal(t, "0", e.GetLastError())
	assert.Equal(t, domain.StateTerminated, e.State())

	require.Len(t, reported, 2)
	assert.Equal(t, []domain.HookKind{domain.HookCommit, domain.HookTerminate}, kinds)
	assert.EqualError(t, reported[0], "disk full")
	assert.ErrorIs(t, reported[1], runtime.ErrHookPanic)
}

func TestEngine_ObserverPanicsAreIsolated(t *testing.T) {
	e := running(t, runtime.WithHooks(domain.Hooks{
		OnCall: func(domain.CallEvent) { panic("observer") },
		OnHook: func(domain.HookEvent) { panic("observer") },
		OnCommit: func(domain.Snapshot) error {
			return nil
		},
	}))
	assert.Equal(t, "true", e.Commit(""))
	assert.Equal(t, "0", e.GetLastError())
}

func TestEngine_HooksNotCalledOnFailure(t *testing.T) {
	calls := 0
	e := runtime.NewEngine(runtime.WithHooks(domain.Hooks{
		OnCommit:    func(domain.Snapshot) error { calls++; return nil },
		OnTerminate: func(domain.Snapshot) error { calls++; return nil },
	}))
	e.Commit("")
	e.Terminate("")
	assert.Zero(t, calls)
}

func TestEngine_TerminateAccumulatesTotalTime(t *testing.T) {
	var final domain.Snapshot
	e := running(t,
		runtime.WithSeed(map[string]string{"cmi.total_time": "PT1H0M0S"}),
		runtime.WithHooks(domain.Hooks{
			OnTerminate: func(s domain.Snapshot) error {
				final = s
				return nil
			},
		}),
	)
	require.Equal(t, "true", e.SetValue("cmi.session_time", "PT30M15.5S"))
	require.Equal(t, "true", e.Terminate(""))

	assert.Equal(t, "PT1H30M15.5S", final["cmi.total_time"])
	assert.Equal(t, "PT30M15.5S", final["cmi.session_time"])
}

func TestEngine_SessionTimeOverflowIsOutOfRange(t *testing.T) {
	var final domain.Snapshot
	e := running(t,
		runtime.WithSeed(map[string]string{"cmi.total_time": "PT10H"}),
		runtime.WithHooks(domain.Hooks{
			OnTerminate: func(s domain.Snapshot) error {
				final = s
				return nil
			},
		}),
	)
	assert.Equal(t, "false", e.SetValue("cmi.session_time", "PT99999999999999H"))
	assert.Equal(t, "407", e.GetLastError())
	assert.Equal(t, "false", e.SetValue("cmi.session_time", "PT99999999999999999999S"))
	assert.Equal(t, "407", e.GetLastError())

	require.Equal(t, "true", e.Terminate(""))
	assert.Equal(t, "PT10H", final["cmi.total_time"])
}

func TestEngine_TotalTimeOverflowKeepsPreviousTotal(t *testing.T) {
	const longest = "PT25620477880152H"
	var final domain.Snapshot
	e := running(t,
		runtime.WithSeed(map[string]string{"cmi.total_time": longest}),
		runtime.WithHooks(domain.Hooks{
			OnTerminate: func(s domain.Snapshot) error {
				final = s
				return nil
			},
		}),
	)
	require.Equal(t, "true", e.SetValue("cmi.session_time", longest))
	require.Equal(t, "true", e.Terminate(""))
	assert.Equal(t, longest, final["cmi.total_time"])
}

func TestEngine_TerminateWithoutSessionTimeKeepsTotal(t *testing.T) {
	var final domain.Snapshot
	e := running(t, runtime.WithHooks(domain.Hooks{
		OnTerminate: func(s domain.Snapshot) error {
			final = s
			return nil
		},
	}))
	require.Equal(t, "true", e.Terminate(""))
	_, ok := final["cmi.total_time"]
	assert.False(t, ok)
}

func TestEngine_CallEvents(t *testing.T) {
	var events []domain.CallEvent
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := runtime.NewEngine(
		runtime.WithClock(func() time.Time { return now }),
		runtime.WithHooks(domain.Hooks{
			OnCall: func(ev domain.CallEvent) { events = append(events, ev) },
		}),
	)

	e.GetValue("cmi.location")
	e.Initialize("")
	e.SetValue("cmi.location", "p3")

	require.Len(t, events, 3)
	assert.Equal(t, domain.CallEvent{Timestamp: now, Method: "GetValue", Element: "cmi.location", Result: "", Code: 122}, events[0])
	assert.Equal(t, domain.CallEvent{Timestamp: now, Method: "Initialize", Result: "true"}, events[1])
	assert.Equal(t, domain.CallEvent{Timestamp: now, Method: "SetValue", Element: "cmi.location", Result: "true"}, events[2])
}

func TestEngine_HookEvents(t *testing.T) {
	var events []domain.HookEvent
	e := running(t, runtime.WithHooks(domain.Hooks{
		OnCommit: func(domain.Snapshot) error { return errors.New("nope") },
		OnHook:   func(ev domain.HookEvent) { events = append(events, ev) },
	}))
	e.Commit("")
	e.Terminate("")

	require.Len(t, events, 1)
	assert.Equal(t, domain.HookCommit, events[0].Kind)
	assert.EqualError(t, events[0].Err, "nope")
}
