package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the record store service.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	BulkRecordsTotal  *prometheus.CounterVec
	KeyCacheHits      prometheus.Counter
	KeyCacheMisses    prometheus.Counter
	KeyRotationsTotal prometheus.Counter
	RateLimitedTotal  prometheus.Counter
}

// New initializes and registers the Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerocrm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		BulkRecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerocrm",
			Subsystem: "bulk",
			Name:      "records_total",
			Help:      "Total number of bulk-ingested records by resource and outcome.",
		}, []string{"resource", "outcome"}), // outcome: created, skipped, rejected
		KeyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "zerocrm",
			Subsystem: "auth",
			Name:      "key_cache_hits_total",
			Help:      "Total number of API key cache hits.",
		}),
		KeyCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "zerocrm",
			Subsystem: "auth",
			Name:      "key_cache_misses_total",
			Help:      "Total number of API key cache misses.",
		}),
		KeyRotationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "zerocrm",
			Subsystem: "auth",
			Name:      "key_rotations_total",
			Help:      "Total number of API key rotations.",
		}),
		RateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "zerocrm",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the per-tenant rate limiter.",
		}),
	}
}
