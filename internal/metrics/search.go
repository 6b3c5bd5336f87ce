package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every shelfdex metric.
const Namespace = "shelfdex"

// Search Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_queries_total",
			Help:      "Total number of searches",
		},
		[]string{"kind", "status"}, // kind: text/json/browse/lane; status: ok/error/empty
	)

	SearchEngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_engine_duration_seconds",
			Help:      "Search engine call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	SearchHypotheses = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_hypotheses",
			Help:      "Relevance hypotheses per compiled text search",
			Buckets:   []float64{1, 2, 4, 8, 12, 16, 24, 32},
		},
	)

	SearchParsedIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_parsed_intents_total",
			Help:      "Intents recognized in search queries",
		},
		[]string{"intent"}, // genre/audience/fiction/target_age
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(SearchEngineDuration)
	prometheus.MustRegister(SearchHypotheses)
	prometheus.MustRegister(SearchParsedIntentsTotal)
	searchMetricsRegistered = true
}
