package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Observer is the process-wide metrics sink
var Observer = New()

func init() {
	prometheus.MustRegister(Observer.collectors()...)
}

// Metrics groups the dashboard's Prometheus collectors
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Exports          *prometheus.CounterVec
	Events           *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
}

// New creates unregistered collectors
func New() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dashboard",
				Name:      "upstream_requests_total",
				Help:      "Requests made to the football data API by resource and outcome.",
			}, []string{"resource", "outcome"}),
		UpstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dashboard",
				Name:      "upstream_request_seconds",
				Help:      "Latency of football data API requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"resource"}),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dashboard",
				Name:      "exports_total",
				Help:      "Table exports by format and outcome.",
			}, []string{"format", "outcome"}),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dashboard",
				Name:      "session_events_total",
				Help:      "Session events handled by type.",
			}, []string{"type"}),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "dashboard",
				Name:      "active_sessions",
				Help:      "Sessions currently held by the hub.",
			}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.Exports,
		m.Events,
		m.ActiveSessions,
	}
}

// ObserveUpstream records one upstream request
func (m *Metrics) ObserveUpstream(resource, outcome string, seconds float64) {
	m.UpstreamRequests.WithLabelValues(resource, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(resource).Observe(seconds)
}

// IncExport records one export attempt
func (m *Metrics) IncExport(format, outcome string) {
	m.Exports.WithLabelValues(format, outcome).Inc()
}

// IncEvent records one handled session event
func (m *Metrics) IncEvent(eventType string) {
	m.Events.WithLabelValues(eventType).Inc()
}

// SetActiveSessions publishes the hub's current session count
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}
