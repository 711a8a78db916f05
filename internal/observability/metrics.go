package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "icerisk"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk engine.
type Metrics struct {
	// Evaluation outcomes.
	Evaluations        *prometheus.CounterVec // labels: source={manual,city,stream,monitor}, combined_risk={Low,Medium,High,Unknown}
	EvaluationFailures *prometheus.CounterVec // labels: source, reason={invalid_input,weather_not_configured,weather_fetch_failed,other}
	ClassifierFailures prometheus.Counter
	ClassifierLoaded   prometheus.Gauge

	// Weather collaborator.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error,not_configured,circuit_open}
	WeatherAPIDuration prometheus.Histogram

	// Segment reference table.
	SegmentsLoaded prometheus.Gauge

	// Stream pipeline.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Scheduled monitor.
	MonitorRuns prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewUnregisteredMetrics creates Metrics, with histogram buckets, that are not
// registered anywhere. One-shot commands with no /metrics endpoint use it.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics(true)
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withBuckets bool) *Metrics {
	batchBuckets := []float64{1, 5, 10, 20, 30, 40, 50, 75, 100}
	durationBuckets := []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10}
	apiBuckets := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	if !withBuckets {
		batchBuckets, durationBuckets, apiBuckets = nil, nil, nil
	}

	return &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Completed evaluations by request source and combined risk label.",
		}, []string{"source", "combined_risk"}),
		EvaluationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_failures_total",
			Help:      "Evaluations that produced no assessment, by source and reason.",
		}, []string{"source", "reason"}),
		ClassifierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Evaluations where the classifier was unavailable and the heuristic was used.",
		}),
		ClassifierLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classifier_loaded",
			Help:      "1 when the classifier artifact loaded, 0 otherwise.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather service requests by outcome.",
		}, []string{"outcome"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Weather API request duration in seconds.",
			Buckets:   apiBuckets,
		}),
		SegmentsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments_loaded",
			Help:      "Number of segments in the reference table.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total assessment requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total evaluations written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total requests that could not be evaluated.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the stream pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   batchBuckets,
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-evaluate-load cycle.",
			Buckets:   durationBuckets,
		}),
		MonitorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_runs_total",
			Help:      "Completed monitor sweeps over the configured cities.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Evaluations,
		m.EvaluationFailures,
		m.ClassifierFailures,
		m.ClassifierLoaded,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.SegmentsLoaded,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.MonitorRuns,
	}
}
