package metrics

import "github.com/prometheus/client_golang/prometheus"

// Related-tag engine Prometheus metrics.
var (
	RelatedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reltag",
			Name:      "related_requests_total",
			Help:      "Total number of related-tag computations",
		},
		[]string{"operation", "strategy", "status"},
	)

	RelatedRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reltag",
			Name:      "related_request_duration_seconds",
			Help:      "Related-tag computation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "strategy"},
	)

	RelatedCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reltag",
			Name:      "related_candidates",
			Help:      "Number of candidate tags scored per similar-tags computation",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	SampleCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reltag",
			Name:      "sample_cache_total",
			Help:      "Sample cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var relatedMetricsRegistered bool

// RegisterRelatedMetrics registers the engine metrics. Must be called once from main.
func RegisterRelatedMetrics() {
	if relatedMetricsRegistered {
		return
	}
	prometheus.MustRegister(RelatedRequestsTotal)
	prometheus.MustRegister(RelatedRequestDuration)
	prometheus.MustRegister(RelatedCandidates)
	prometheus.MustRegister(SampleCacheTotal)
	relatedMetricsRegistered = true
}
