package eventlog

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentcore/orchestrator/internal/models"
)

// Metrics holds the Prometheus counters/histograms the Event Log exposes.
// Observability itself is out of scope (spec.md §1 Non-goals) — these are
// the thin counters on top of the append-only store the teacher always
// wires around durable workflow execution, not a metrics aggregation
// backend.
type Metrics struct {
	eventsTotal      *prometheus.CounterVec
	toolCallLatency  prometheus.Histogram
	modelTurnLatency prometheus.Histogram
	spawnDepth       prometheus.Histogram
}

// NewMetrics registers the Event Log's metrics on reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry across repeated calls.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_eventlog_events_total",
			Help: "Count of Event Log entries written, by event_type.",
		}, []string{"event_type"}),
		toolCallLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentcore_eventlog_tool_call_latency_ms",
			Help:    "Latency in milliseconds of tool_call_result events.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}),
		modelTurnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentcore_eventlog_model_turn_latency_ms",
			Help:    "Latency in milliseconds of model_turn events.",
			Buckets: prometheus.ExponentialBuckets(50, 2, 12),
		}),
		spawnDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentcore_eventlog_spawn_depth",
			Help:    "Depth of spawned Instances at the moment of their spawned event.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.eventsTotal, m.toolCallLatency, m.modelTurnLatency, m.spawnDepth)
	}
	return m
}

// Observe updates the relevant metric(s) for a just-appended Event.
func (m *Metrics) Observe(e models.Event) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(e.EventType)).Inc()

	switch e.EventType {
	case models.EventToolCallResult:
		if e.LatencyMs > 0 {
			m.toolCallLatency.Observe(float64(e.LatencyMs))
		}
	case models.EventModelTurn:
		if e.LatencyMs > 0 {
			m.modelTurnLatency.Observe(float64(e.LatencyMs))
		}
	case models.EventSpawned:
		var payload struct {
			Depth int `json:"depth"`
		}
		if e.Payload != "" {
			_ = json.Unmarshal([]byte(e.Payload), &payload)
			m.spawnDepth.Observe(float64(payload.Depth))
		}
	}
}
