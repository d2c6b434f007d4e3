// Package domain holds the shared data model for the data-access core.
package domain

import "time"

// PrimaryID is the reserved endpoint id for the writable primary.
const PrimaryID = "primary"

// ErrorThreshold is the consecutive error count at which a replica is
// demoted to UNHEALTHY.
const ErrorThreshold = 3

// ReplicaStatus represents the health state of a database endpoint.
type ReplicaStatus string

const (
	StatusHealthy   ReplicaStatus = "HEALTHY"
	StatusUnhealthy ReplicaStatus = "UNHEALTHY"
)

// ReplicaConfig describes a database endpoint. The primary is a
// ReplicaConfig with ID "primary" and is always enabled.
type ReplicaConfig struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	APIKey   string `json:"-"`
	Region   string `json:"region,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Weight   int    `json:"weight,omitempty"`
	MaxConns int    `json:"max_conns,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// ReplicaHealth tracks the live health state of one endpoint. It is
// mutated only by the probe loop and by query-path failure reporting.
type ReplicaHealth struct {
	ReplicaID        string        `json:"replica_id"`
	Status           ReplicaStatus `json:"status"`
	LastCheck        time.Time     `json:"last_check"`
	Latency          time.Duration `json:"latency_ms"`
	ErrorCount       int           `json:"error_count"`
	UptimePercentage float64       `json:"uptime_percentage"`
}
