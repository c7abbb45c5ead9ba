package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors the run pipeline feeds.
// A nil *Metrics is valid and records nothing, so instrumentation stays
// optional for embedded use.
type Metrics struct {
	EventsTotal     *prometheus.CounterVec
	MalformedFrames prometheus.Counter
	RunsTotal       *prometheus.CounterVec
	ThinkingSeconds prometheus.Histogram
}

// New registers the canopy collectors on reg. Pass
// prometheus.DefaultRegisterer for the ambient registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "run_events_total",
			Help:      "Execution events applied to run state, by event kind.",
		}, []string{"kind"}),
		MalformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "malformed_frames_total",
			Help:      "Stream frames skipped because they could not be decoded.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "runs_total",
			Help:      "Finished runs, by outcome (completed, errored, stopped).",
		}, []string{"outcome"}),
		ThinkingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "canopy",
			Name:      "thinking_duration_seconds",
			Help:      "Time from submit to first streamed token.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

// ObserveEvent records one applied event. Safe on a nil receiver.
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// ObserveMalformed records one skipped frame. Safe on a nil receiver.
func (m *Metrics) ObserveMalformed() {
	if m == nil {
		return
	}
	m.MalformedFrames.Inc()
}

// ObserveRun records a finished run and its thinking duration in
// seconds. Safe on a nil receiver.
func (m *Metrics) ObserveRun(outcome string, thinkingSeconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	if thinkingSeconds > 0 {
		m.ThinkingSeconds.Observe(thinkingSeconds)
	}
}
