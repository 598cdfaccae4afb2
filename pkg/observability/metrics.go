package observability

import (
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the RTE collectors.
type Metrics struct {
	Calls        *prometheus.CounterVec
	HookDuration *prometheus.HistogramVec
	HookFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorm_calls_total",
				Help: "SCORM API calls by method and resulting error code",
			},
			[]string{"method", "code"},
		),
		HookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorm_hook_duration_seconds",
				Help:    "Duration of commit and terminate persistence hooks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"hook"},
		),
		HookFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorm_hook_failures_total",
				Help: "Persistence hooks that returned an error or panicked",
			},
			[]string{"hook"},
		),
	}
	for _, c := range []prometheus.Collector{m.Calls, m.HookDuration, m.HookFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterActiveSessions exposes a gauge backed by fn, typically session.Manager.Active.
func RegisterActiveSessions(reg prometheus.Registerer, fn func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "scorm_active_sessions",
			Help: "Live SCORM sessions held by the host",
		},
		func() float64 { return float64(fn()) },
	))
}

// Hooks returns observers that record every call and hook outcome.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnCall: func(ev domain.CallEvent) {
			m.Calls.WithLabelValues(ev.Method, ev.Code.String()).Inc()
		},
		OnHook: func(ev domain.HookEvent) {
			kind := string(ev.Kind)
			m.HookDuration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
			if ev.Err != nil {
				m.HookFailures.WithLabelValues(kind).Inc()
			}
		},
	}
}
