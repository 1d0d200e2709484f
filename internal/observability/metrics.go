package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gallery_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ExpDeltaTotal counts experience deltas by action and outcome.
	ExpDeltaTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_exp_delta_total",
		Help: "Total number of experience deltas applied",
	}, []string{"action", "outcome"})

	// ExpRollbacksTotal counts optimistic experience updates that were undone.
	ExpRollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_exp_rollbacks_total",
		Help: "Total number of experience updates rolled back after a persistence failure",
	})

	// LeaderboardBuildSeconds records how long a leaderboard build takes.
	LeaderboardBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gallery_leaderboard_build_seconds",
		Help:    "Time spent aggregating and ranking the leaderboard",
		Buckets: prometheus.DefBuckets,
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
