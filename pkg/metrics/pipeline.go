package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeArchived  = "archived"
	OutcomePublished = "published"
	OutcomeSkipped   = "skipped"
	OutcomeFatal     = "fatal"
	OutcomeTransient = "transient"
)

// PipelineMetrics records per-event outcomes for the archival pipeline.
type PipelineMetrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	halted   prometheus.Gauge
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_total",
		Help: "Processed events by kind and outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archival_duration_seconds",
		Help:    "Duration of render and archive round trips in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	halted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "consumer_halted",
		Help: "1 when the stream consumer stopped on a fatal event.",
	})
	reg.MustRegister(events, duration, halted)
	return &PipelineMetrics{
		events:   events,
		duration: duration,
		halted:   halted,
	}
}

// IncEvent increments the outcome counter for the given event kind.
func (m *PipelineMetrics) IncEvent(kind, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveArchival records one render plus archive round trip.
func (m *PipelineMetrics) ObserveArchival(kind string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func (m *PipelineMetrics) SetHalted(halted bool) {
	if m == nil || m.halted == nil {
		return
	}
	if halted {
		m.halted.Set(1)
		return
	}
	m.halted.Set(0)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
