package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisory pipeline and the event store.
type Metrics struct {
	// Forecast fetch metrics.
	ForecastFetches  *prometheus.CounterVec // labels: outcome={success,network,status,empty_body,decode}
	ForecastDuration prometheus.Histogram
	FetchTriggers    *prometheus.CounterVec // labels: source={first_fix,recenter}

	// Event store metrics.
	StoreSaves   *prometheus.CounterVec // labels: op={create,delete}, outcome={success,error}
	EventsStored prometheus.Gauge

	// Advisory banner metrics.
	AdvisoriesShown     prometheus.Counter
	NotificationVisible prometheus.Gauge

	// Image hosting metrics.
	ImageUploads *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all core metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ForecastFetches,
		m.ForecastDuration,
		m.FetchTriggers,
		m.StoreSaves,
		m.EventsStored,
		m.AdvisoriesShown,
		m.NotificationVisible,
		m.ImageUploads,
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
		ForecastFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainydays",
			Name:      "forecast_fetches_total",
			Help:      "Forecast fetch attempts by outcome.",
		}, []string{"outcome"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainydays",
			Name:      "forecast_fetch_duration_seconds",
			Help:      "Duration of forecast API requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainydays",
			Name:      "fetch_triggers_total",
			Help:      "Fetch triggers emitted by the location tracker, by source.",
		}, []string{"source"}),
		StoreSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainydays",
			Name:      "store_saves_total",
			Help:      "Event store mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		EventsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainydays",
			Name:      "events_stored",
			Help:      "Number of events currently held by the store.",
		}),
		AdvisoriesShown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainydays",
			Name:      "advisories_shown_total",
			Help:      "Advisory banners displayed to the user.",
		}),
		NotificationVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainydays",
			Name:      "notification_visible",
			Help:      "1 while an advisory banner is visible, 0 otherwise.",
		}),
		ImageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainydays",
			Name:      "image_uploads_total",
			Help:      "Image hosting uploads by outcome.",
		}, []string{"outcome"}),
	}
}
