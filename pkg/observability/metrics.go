package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation for the guide field: fit
// and online-update throughput, the ASM split/merge and EM internals, and
// the query-side sampling path.
type Metrics struct {
	// Fit/update request metrics
	BatchesTotal   *prometheus.CounterVec
	BatchDuration  *prometheus.HistogramVec
	BatchErrors    *prometheus.CounterVec

	// EM metrics
	EMIterations       prometheus.Histogram
	EMLogLikelihood    prometheus.Histogram
	NumericDegeneracy  prometheus.Counter
	InvalidSamples     prometheus.Counter

	// ASM split/merge metrics
	SplitsTotal          prometheus.Counter
	MergesTotal          prometheus.Counter
	SplitCapacityRefused prometheus.Counter
	ComponentCount       *prometheus.GaugeVec

	// Query metrics
	QuerySampleLatency prometheus.Histogram
	QueryPDFLatency    prometheus.Histogram
	RegionsTotal       prometheus.Gauge

	// Persistence metrics
	SerializationErrors prometheus.Counter

	// System metrics
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewMetrics creates and registers every guide-field Prometheus metric.
func NewMetrics() *Metrics {
	m := &Metrics{
		BatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guiding_batches_total",
				Help: "Total number of fit/update batches processed by operation and status",
			},
			[]string{"operation", "status"},
		),
		BatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guiding_batch_duration_seconds",
				Help:    "Fit/update batch duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		BatchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guiding_batch_errors_total",
				Help: "Total number of fit/update batch errors by operation and error kind",
			},
			[]string{"operation", "kind"},
		),

		EMIterations: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guiding_em_iterations",
				Help:    "Number of EM iterations to convergence per batch",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 50, 100},
			},
		),
		EMLogLikelihood: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guiding_em_log_likelihood",
				Help:    "Weighted log-likelihood per batch at convergence",
				Buckets: prometheus.LinearBuckets(-20, 2, 15),
			},
		),
		NumericDegeneracy: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guiding_em_numeric_degeneracy_total",
				Help: "Total number of EM batches that hit numeric degeneracy",
			},
		),
		InvalidSamples: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guiding_invalid_samples_total",
				Help: "Total number of samples rejected before accumulation",
			},
		),

		SplitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guiding_splits_total",
				Help: "Total number of component splits performed",
			},
		),
		MergesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guiding_merges_total",
				Help: "Total number of component merges performed",
			},
		),
		SplitCapacityRefused: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guiding_split_capacity_refused_total",
				Help: "Total number of splits refused because a mixture was already at K_max",
			},
		),
		ComponentCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "guiding_component_count",
				Help: "Current number of mixture components by region",
			},
			[]string{"region"},
		),

		QuerySampleLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guiding_query_sample_latency_seconds",
				Help:    "Latency of a single direction sample from a guide distribution",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
		),
		QueryPDFLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guiding_query_pdf_latency_seconds",
				Help:    "Latency of a single PDF evaluation against a guide distribution",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
		),
		RegionsTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "guiding_regions_total",
				Help: "Total number of active spatial regions in the field",
			},
		),

		SerializationErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "guiding_serialization_errors_total",
				Help: "Total number of configuration/statistics decode failures",
			},
		),

		GoroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "guiding_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "guiding_memory_bytes",
				Help: "Memory usage in bytes",
			},
		),
	}

	return m
}

// RecordBatch records a fit/update batch's outcome and duration.
func (m *Metrics) RecordBatch(operation, status string, duration time.Duration) {
	m.BatchesTotal.WithLabelValues(operation, status).Inc()
	m.BatchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBatchError records a batch error by kind (numeric_degeneracy,
// capacity_exceeded, corrupted_state, serialization_mismatch).
func (m *Metrics) RecordBatchError(operation, kind string) {
	m.BatchErrors.WithLabelValues(operation, kind).Inc()
}

// RecordEM records one EM convergence's iteration count and final
// log-likelihood.
func (m *Metrics) RecordEM(iterations int, logLikelihood float64) {
	m.EMIterations.Observe(float64(iterations))
	m.EMLogLikelihood.Observe(logLikelihood)
}

// RecordNumericDegeneracy records an EM batch that aborted on degeneracy.
func (m *Metrics) RecordNumericDegeneracy() {
	m.NumericDegeneracy.Inc()
}

// RecordInvalidSamples records samples rejected before accumulation.
func (m *Metrics) RecordInvalidSamples(count int) {
	m.InvalidSamples.Add(float64(count))
}

// RecordSplits records a number of successful component splits.
func (m *Metrics) RecordSplits(count int) {
	m.SplitsTotal.Add(float64(count))
}

// RecordMerges records a number of successful component merges.
func (m *Metrics) RecordMerges(count int) {
	m.MergesTotal.Add(float64(count))
}

// RecordSplitCapacityRefused records a split that was refused at K_max.
func (m *Metrics) RecordSplitCapacityRefused() {
	m.SplitCapacityRefused.Inc()
}

// UpdateComponentCount updates the current component count for a region.
func (m *Metrics) UpdateComponentCount(region string, k int) {
	m.ComponentCount.WithLabelValues(region).Set(float64(k))
}

// RecordQuerySample records a direction-sampling query's latency.
func (m *Metrics) RecordQuerySample(duration time.Duration) {
	m.QuerySampleLatency.Observe(duration.Seconds())
}

// RecordQueryPDF records a PDF-evaluation query's latency.
func (m *Metrics) RecordQueryPDF(duration time.Duration) {
	m.QueryPDFLatency.Observe(duration.Seconds())
}

// UpdateRegionsTotal updates the active region count.
func (m *Metrics) UpdateRegionsTotal(count int) {
	m.RegionsTotal.Set(float64(count))
}

// RecordSerializationError records a configuration/statistics decode
// failure.
func (m *Metrics) RecordSerializationError() {
	m.SerializationErrors.Inc()
}

// UpdateGoroutineCount updates the goroutine count gauge.
func (m *Metrics) UpdateGoroutineCount(count int) {
	m.GoroutinesCount.Set(float64(count))
}

// UpdateMemoryUsage updates the memory usage gauge.
func (m *Metrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}
