package observability_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsCallsAndHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := metrics.Hooks()
	hooks.OnCommit = func(domain.Snapshot) error { return errors.New("store down") }
	api := scorm.New(scorm.WithHooks(hooks))

	api.GetValue("cmi.location")
	api.Initialize("")
	api.GetValue("cmi.location")
	api.GetValue("cmi.bogus")
	api.Commit("")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls.WithLabelValues("GetValue", "122")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls.WithLabelValues("GetValue", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls.WithLabelValues("GetValue", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls.WithLabelValues("Initialize", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls.WithLabelValues("Commit", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HookFailures.WithLabelValues("commit")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.HookDuration))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestRegisterActiveSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	active := 3
	require.NoError(t, observability.RegisterActiveSessions(reg, func() int { return active }))

	expected := `
# HELP scorm_active_sessions Live SCORM sessions held by the host
# TYPE scorm_active_sessions gauge
scorm_active_sessions 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "scorm_active_sessions"))
}

func TestCombine(t *testing.T) {
	var a, b int
	var kinds []domain.HookKind
	h := observability.Combine(
		domain.Hooks{OnCall: func(domain.CallEvent) { a++ }},
		domain.Hooks{
			OnCall:      func(domain.CallEvent) { b++ },
			OnHookError: func(k domain.HookKind, _ error) { kinds = append(kinds, k) },
		},
		domain.Hooks{},
	)
	require.NotNil(t, h.OnCall)
	assert.Nil(t, h.OnHook)

	h.OnCall(domain.CallEvent{})
	h.OnHookError(domain.HookTerminate, errors.New("x"))
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, []domain.HookKind{domain.HookTerminate}, kinds)
}
