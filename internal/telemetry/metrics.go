package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "feestrategy",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// StoreAggregationDuration tracks the latency of Mongo round-trips, split
// by operation ("aggregate" or "find", carried in the "engine" label),
// database, and collection.
var StoreAggregationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "feestrategy",
		Subsystem: "store",
		Name:      "aggregation_duration_seconds",
		Help:      "Aggregation pipeline round-trip duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"engine", "database", "collection"},
)

// CacheLookupsTotal counts response cache hits and misses by surface.
var CacheLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "feestrategy",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by surface and outcome.",
	},
	[]string{"surface", "outcome"},
)

// PivotRetentionRatio reports the most recent data-quality sampling
// retention ratio (0 to 1) observed by the pivot engine.
var PivotRetentionRatio = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "feestrategy",
		Subsystem: "pivot",
		Name:      "line_item_retention_ratio",
		Help:      "Share of line items retained after empty-row filtering in the last sampled run.",
	},
)

// All returns all service-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		StoreAggregationDuration,
		CacheLookupsTotal,
		PivotRetentionRatio,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process
// collectors, the shared HTTP histogram, and any additional collectors.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
