// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	SimulationsTotal  *prometheus.CounterVec
	TrialsSimulated   prometheus.Counter
	SimulationSeconds prometheus.Histogram

	// Validation metrics
	GridsValidated       prometheus.Counter
	GridValidationErrors *prometheus.CounterVec

	// Submission metrics
	SubmissionsTotal *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSProgressMessages  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSimulation prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pricing_lab"
	}

	return &Metrics{
		// Simulation metrics
		SimulationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		TrialsSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Total number of Monte Carlo trials simulated",
		}),
		SimulationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),

		// Validation metrics
		GridsValidated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "grids_validated_total",
			Help:      "Total number of policy grids validated",
		}),
		GridValidationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "grid_errors_total",
			Help:      "Total number of grid validation failures by kind",
		}, []string{"kind"}),

		// Submission metrics
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "submissions_total",
			Help:      "Total number of submissions by status",
		}, []string{"status"}),

		// WebSocket metrics
		WSConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections_active",
			Help:      "Number of active simulation progress connections",
		}),
		WSProgressMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "progress_messages_total",
			Help:      "Total number of progress messages sent",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulSimulation: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_simulation_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSimulation records one simulation run and its duration.
func RecordSimulation(status string, trials int, durationSeconds float64) {
	DefaultMetrics.SimulationsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		DefaultMetrics.TrialsSimulated.Add(float64(trials))
		DefaultMetrics.SimulationSeconds.Observe(durationSeconds)
	}
}

// RecordGridValidation records one validation request and its failure kinds.
func RecordGridValidation(errorKinds []string) {
	DefaultMetrics.GridsValidated.Inc()
	for _, kind := range errorKinds {
		DefaultMetrics.GridValidationErrors.WithLabelValues(kind).Inc()
	}
}

// RecordSubmission increments the submission counter.
func RecordSubmission(status string) {
	DefaultMetrics.SubmissionsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
