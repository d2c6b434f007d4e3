// Package health exposes the replica topology's health over HTTP and
// the standard gRPC health protocol.
package health

import (
	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// SystemStatus represents the overall health state of the core.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report is the full health report.
type Report struct {
	SystemStatus SystemStatus                    `json:"system_status"`
	Replicas     map[string]domain.ReplicaHealth `json:"replicas"`
}

// Aggregate derives overall status from per-endpoint health: an
// unhealthy primary is critical, any unhealthy replica degrades.
func Aggregate(replicas map[string]domain.ReplicaHealth) SystemStatus {
	status := StatusHealthy
	for id, h := range replicas {
		if h.Status == domain.StatusHealthy {
			continue
		}
		if id == domain.PrimaryID {
			return StatusCritical
		}
		status = StatusDegraded
	}
	return status
}
