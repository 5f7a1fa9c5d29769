package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harborlens_questions_total",
			Help: "Total number of processed questions by terminal outcome.",
		},
		[]string{"outcome"},
	)
	modelLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harborlens_model_latency_seconds",
			Help:    "Language model completion latency by purpose.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"purpose"},
	)
	warehouseQueryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harborlens_warehouse_query_duration_seconds",
			Help:    "Warehouse statement execution latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	summaryFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harborlens_summary_fallbacks_total",
			Help: "Total number of narrative summaries replaced by the fixed fallback.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		modelLatencySeconds,
		warehouseQueryDurationSeconds,
		summaryFallbacksTotal,
	)
}

func ObserveQuestionOutcome(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveModelLatency(purpose string, elapsed time.Duration) {
	modelLatencySeconds.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

func ObserveWarehouseQuery(elapsed time.Duration) {
	warehouseQueryDurationSeconds.Observe(elapsed.Seconds())
}

func IncrementSummaryFallback() {
	summaryFallbacksTotal.Inc()
}
