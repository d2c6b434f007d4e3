// Package metrics defines the Prometheus metric vectors for the
// data-access core. All metrics are registered on the default
// registry and exposed by the health server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal tracks routed queries per type and resolved endpoint
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacore_queries_total",
			Help: "Total number of routed queries",
		},
		[]string{"query_type", "replica"},
	)

	// QueryErrorsTotal tracks query failures per resolved endpoint
	QueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacore_query_errors_total",
			Help: "Total number of failed queries",
		},
		[]string{"query_type", "replica"},
	)

	// ReplicaHealthy reports 1 when a replica is HEALTHY, 0 otherwise
	ReplicaHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "datacore_replica_healthy",
			Help: "Replica health status (1 healthy, 0 unhealthy)",
		},
		[]string{"replica"},
	)

	// ProbeLatency tracks health probe latency per endpoint
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datacore_probe_latency_seconds",
			Help:    "Health probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"replica"},
	)

	// ProbeFailuresTotal tracks failed health probes per endpoint
	ProbeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacore_probe_failures_total",
			Help: "Total number of failed health probes",
		},
		[]string{"replica"},
	)

	// RecoveryTotal tracks error-recovery outcomes per strategy
	RecoveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacore_recovery_total",
			Help: "Total number of handled failures by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// FallbackCacheSize tracks the current fallback cache entry count
	FallbackCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datacore_fallback_cache_entries",
			Help: "Current number of fallback cache entries",
		},
	)
)
