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
	// Ingestion metrics
	RecordsParsed    prometheus.Counter
	RecordsStored    prometheus.Counter
	OutliersRemoved  prometheus.Counter
	BarsResampled    prometheus.Counter
	GapsDetected     prometheus.Counter
	IngestionErrors  *prometheus.CounterVec
	WSMessageLatency prometheus.Histogram
	WSReconnects     prometheus.Counter

	// Simulation metrics
	OrdersExecuted     prometheus.Counter
	OrdersFailed       prometheus.Counter
	SimulationsRun     prometheus.Counter
	EvaluationDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crypto_backtest_lab"
	}

	return &Metrics{
		// Ingestion metrics
		RecordsParsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_parsed_total",
			Help:      "Total number of raw price records parsed",
		}),
		RecordsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_stored_total",
			Help:      "Total number of price records stored to the backend",
		}),
		OutliersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "outliers_removed_total",
			Help:      "Total number of price records removed as outliers",
		}),
		BarsResampled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_resampled_total",
			Help:      "Total number of OHLC bars produced by resampling",
		}),
		GapsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "gaps_detected_total",
			Help:      "Total number of price history gaps reported",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by source and type",
		}, []string{"source", "error_type"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket reconnects",
		}),

		// Simulation metrics
		OrdersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "orders_executed_total",
			Help:      "Total number of successfully executed orders",
		}),
		OrdersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "orders_failed_total",
			Help:      "Total number of orders that failed to execute",
		}),
		SimulationsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulated periods",
		}),
		EvaluationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "evaluation_duration_seconds",
			Help:      "Simulator evaluation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"strategy"}),

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
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRecordsParsed adds to the records parsed counter.
func RecordRecordsParsed(n int) {
	DefaultMetrics.RecordsParsed.Add(float64(n))
}

// RecordRecordsStored adds to the records stored counter.
func RecordRecordsStored(n int) {
	DefaultMetrics.RecordsStored.Add(float64(n))
}

// RecordOutliersRemoved adds to the outliers removed counter.
func RecordOutliersRemoved(n int) {
	DefaultMetrics.OutliersRemoved.Add(float64(n))
}

// RecordBarsResampled adds to the bars resampled counter.
func RecordBarsResampled(n int) {
	DefaultMetrics.BarsResampled.Add(float64(n))
}

// RecordGapsDetected adds to the gaps detected counter.
func RecordGapsDetected(n int) {
	DefaultMetrics.GapsDetected.Add(float64(n))
}

// RecordIngestionError records an ingestion error.
func RecordIngestionError(source, errorType string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(source, errorType).Inc()
}

// RecordWSReconnect increments the WebSocket reconnects counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordWSLatency records WebSocket message processing latency.
func RecordWSLatency(seconds float64) {
	DefaultMetrics.WSMessageLatency.Observe(seconds)
}

// RecordOrderExecuted increments the executed orders counter.
func RecordOrderExecuted() {
	DefaultMetrics.OrdersExecuted.Inc()
}

// RecordOrderFailed increments the failed orders counter.
func RecordOrderFailed() {
	DefaultMetrics.OrdersFailed.Inc()
}

// RecordSimulationRun increments the simulated periods counter.
func RecordSimulationRun() {
	DefaultMetrics.SimulationsRun.Inc()
}

// RecordEvaluation records one simulator evaluation.
func RecordEvaluation(strategy string, seconds float64) {
	DefaultMetrics.EvaluationDuration.WithLabelValues(strategy).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
