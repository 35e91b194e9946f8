package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// BackendFailures counts adapter operations normalized to an empty result.
	BackendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_backend_failures_total",
		Help: "Backend adapter operations that failed",
	}, []string{"operation"})

	// InvalidationEvents counts published invalidation events.
	InvalidationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_invalidation_events_total",
		Help: "Invalidation events published by entity and action",
	}, []string{"entity", "action"})

	// InvalidationDrops counts events a slow subscriber did not receive.
	InvalidationDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_invalidation_drops_total",
		Help: "Invalidation events coalesced away for a full subscriber",
	}, []string{"bus"})

	// CacheRefreshes counts content cache reloads by kind.
	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_refreshes_total",
		Help: "Content cache reloads by kind",
	}, []string{"kind"})

	// ImageUploads counts image uploads by kind and result.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_image_uploads_total",
		Help: "Image uploads by kind and result",
	}, []string{"kind", "result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
