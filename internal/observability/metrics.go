package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	memorySearchDuration prometheus.Histogram
	memoryWriteDuration  prometheus.Histogram
	memoryChunksTotal    prometheus.Gauge
	indexUpsertTotal     *prometheus.CounterVec
	indexErrorsTotal     *prometheus.CounterVec
	toolExecutionTotal   *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			memorySearchDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "memory_search_duration_seconds",
					Help:    "Memory search duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			memoryWriteDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "memory_write_duration_seconds",
					Help:    "Memory write/reindex duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			memoryChunksTotal: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "memory_chunks_total",
					Help: "Total chunks currently stored in the semantic index.",
				},
			),
			indexUpsertTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "index_upsert_total",
					Help: "Total index upsert operations by document type.",
				},
				[]string{"doc_type"},
			),
			indexErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "index_errors_total",
					Help: "Total swallowed index failures by operation.",
				},
				[]string{"operation"},
			),
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tool_execution_total",
					Help: "Total tool executions by tool and status.",
				},
				[]string{"tool", "status"},
			),
		}

		prometheus.MustRegister(
			m.memorySearchDuration,
			m.memoryWriteDuration,
			m.memoryChunksTotal,
			m.indexUpsertTotal,
			m.indexErrorsTotal,
			m.toolExecutionTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordMemorySearch(duration time.Duration) {
	getMetrics().memorySearchDuration.Observe(duration.Seconds())
}

func RecordMemoryWrite(duration time.Duration) {
	getMetrics().memoryWriteDuration.Observe(duration.Seconds())
}

func SetMemoryChunks(total int) {
	getMetrics().memoryChunksTotal.Set(float64(total))
}

func RecordIndexUpsert(docType string, chunks int) {
	getMetrics().indexUpsertTotal.WithLabelValues(docType).Add(float64(chunks))
}

func RecordIndexError(operation string) {
	getMetrics().indexErrorsTotal.WithLabelValues(operation).Inc()
}

func RecordToolExecution(tool string, success bool) {
	status := "error"
	if success {
		status = "success"
	}
	getMetrics().toolExecutionTotal.WithLabelValues(tool, status).Inc()
}
