package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the advisor.
type Metrics struct {
	// Upstream data provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={geocode,forecast,archive,soil}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source
	Fallbacks        *prometheus.CounterVec   // labels: component={geocode,weather,soil,soil_zero}

	// Prediction metrics.
	Predictions        *prometheus.CounterVec // labels: crop
	PredictionErrors   prometheus.Counter
	PredictionDuration prometheus.Histogram
	ModelLoaded        prometheus.Gauge

	// Prediction event stream metrics.
	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter
}

// NewMetrics creates and registers all advisor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.Fallbacks,
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.ModelLoaded,
		m.EventsPublished,
		m.EventsFailed,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "upstream_requests_total",
			Help:      "Upstream data provider requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crop_advisor",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream data provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "fallbacks_total",
			Help:      "Default or randomized values substituted for unusable upstream data.",
		}, []string{"component"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "predictions_total",
			Help:      "Successful predictions by recommended crop.",
		}, []string{"crop"}),
		PredictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "prediction_errors_total",
			Help:      "Predict requests that ended in an error response.",
		}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_advisor",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of a complete enrich-and-predict cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_advisor",
			Name:      "model_loaded",
			Help:      "1 when the classifier artifact loaded at startup, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "prediction_events_published_total",
			Help:      "Prediction events written to the Kafka topic.",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "prediction_events_failed_total",
			Help:      "Prediction events that could not be written to Kafka.",
		}),
	}
}
