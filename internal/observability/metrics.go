package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the navigator.
type Metrics struct {
	FixesReceived  prometheus.Counter
	FixesRejected  prometheus.Counter
	PositionErrors *prometheus.CounterVec // labels: code={permission_denied,unavailable,timeout}
	FixDuration    prometheus.Histogram

	Announcements    *prometheus.CounterVec // labels: kind={start,guide,hazard,arrival}
	SpeechSuppressed prometheus.Counter

	HazardsLoaded *prometheus.GaugeVec // labels: source
	SessionActive prometheus.Gauge
	GuideIndex    prometheus.Gauge

	// Data service metrics.
	DataServiceRequests *prometheus.CounterVec   // labels: endpoint={route,hazards}, outcome={success,error}
	DataServiceDuration *prometheus.HistogramVec // labels: endpoint
	RouteCache          *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all navigator metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FixesReceived,
		m.FixesRejected,
		m.PositionErrors,
		m.FixDuration,
		m.Announcements,
		m.SpeechSuppressed,
		m.HazardsLoaded,
		m.SessionActive,
		m.GuideIndex,
		m.DataServiceRequests,
		m.DataServiceDuration,
		m.RouteCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FixesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "fixes_received_total",
			Help:      "Total position fixes delivered by the position source.",
		}),
		FixesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "fixes_rejected_total",
			Help:      "Position fixes discarded for non-finite or out-of-range coordinates.",
		}),
		PositionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "position_errors_total",
			Help:      "Position source errors by classified code.",
		}, []string{"code"}),
		FixDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navigator",
			Name:      "fix_processing_duration_seconds",
			Help:      "Time spent processing one position fix.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		Announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "announcements_total",
			Help:      "Announcements scheduled by kind, whether or not voice was enabled.",
		}, []string{"kind"}),
		SpeechSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "speech_suppressed_total",
			Help:      "Announcements not spoken because voice was disabled or unavailable.",
		}),
		HazardsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "navigator",
			Name:      "hazards_loaded",
			Help:      "Normalized hazard records in the active session by source.",
		}, []string{"source"}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "navigator",
			Name:      "session_active",
			Help:      "1 while a session is navigating, 0 otherwise.",
		}),
		GuideIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "navigator",
			Name:      "guide_index",
			Help:      "Index of the next expected guide step.",
		}),
		DataServiceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "data_service_requests_total",
			Help:      "Data service requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		DataServiceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "navigator",
			Name:      "data_service_duration_seconds",
			Help:      "Data service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		RouteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navigator",
			Name:      "route_cache_total",
			Help:      "Route cache lookups by result.",
		}, []string{"result"}),
	}
}
