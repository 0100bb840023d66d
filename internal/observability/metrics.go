package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "form_assist"

// Metrics holds the Prometheus counters, histograms, and gauges for the form assistant.
type Metrics struct {
	// Address lookup metrics.
	LookupRequests    *prometheus.CounterVec // labels: outcome={found,not_found,error}
	LookupAPIDuration prometheus.Histogram
	LookupSkipped     prometheus.Counter

	// Field store metrics.
	FormSaves    prometheus.Counter
	FormRestores *prometheus.CounterVec // labels: result={found,absent,malformed}

	// Submission metrics.
	Submissions          *prometheus.CounterVec // labels: outcome={saved,invalid}
	SubmissionsPublished *prometheus.CounterVec // labels: outcome={ok,error}

	ThemeToggles *prometheus.CounterVec // labels: theme={light,dark}

	// Session metrics.
	SessionsActive prometheus.Gauge
	SessionsEnded  *prometheus.CounterVec // labels: reason={expired,evicted}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewUnregisteredMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}

// NewUnregisteredMetrics creates Metrics that no registry exports, for tools
// that reuse instrumented clients without serving /metrics.
func NewUnregisteredMetrics() *Metrics {
	return &Metrics{
		LookupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_requests_total",
			Help:      "Postal code lookups by outcome.",
		}, []string{"outcome"}),
		LookupAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_api_duration_seconds",
			Help:      "Address service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		LookupSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_skipped_total",
			Help:      "Postal code blurs that did not normalize to eight digits.",
		}),
		FormSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_saves_total",
			Help:      "Form records written to a session store.",
		}),
		FormRestores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_restores_total",
			Help:      "Form record restores by result.",
		}, []string{"result"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Form submissions by outcome.",
		}, []string{"outcome"}),
		SubmissionsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_published_total",
			Help:      "Submitted records published to the submission topic.",
		}, []string{"outcome"}),
		ThemeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "theme_toggles_total",
			Help:      "Theme toggles by resulting theme.",
		}, []string{"theme"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live sessions held in memory.",
		}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.LookupRequests,
		m.LookupAPIDuration,
		m.LookupSkipped,
		m.FormSaves,
		m.FormRestores,
		m.Submissions,
		m.SubmissionsPublished,
		m.ThemeToggles,
		m.SessionsActive,
		m.SessionsEnded,
	}
}
