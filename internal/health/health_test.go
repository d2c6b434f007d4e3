package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// =============================================================================
// Aggregation
// =============================================================================

func TestAggregate(t *testing.T) {
	healthy := domain.ReplicaHealth{Status: domain.StatusHealthy}
	unhealthy := domain.ReplicaHealth{Status: domain.StatusUnhealthy}

	tests := []struct {
		name     string
		replicas map[string]domain.ReplicaHealth
		want     SystemStatus
	}{
		{
			name:     "empty topology is healthy",
			replicas: map[string]domain.ReplicaHealth{},
			want:     StatusHealthy,
		},
		{
			name: "all healthy",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: healthy,
				"replica-west":   healthy,
			},
			want: StatusHealthy,
		},
		{
			name: "one replica down degrades",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: healthy,
				"replica-west":   unhealthy,
				"replica-east":   healthy,
			},
			want: StatusDegraded,
		},
		{
			name: "primary down is critical",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: unhealthy,
				"replica-west":   healthy,
			},
			want: StatusCritical,
		},
		{
			name: "primary down outranks degraded replicas",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: unhealthy,
				"replica-west":   unhealthy,
			},
			want: StatusCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.replicas); got != tt.want {
				t.Errorf("Aggregate() = %s, want %s", got, tt.want)
			}
		})
	}
}

// =============================================================================
// HTTP endpoints
// =============================================================================

type staticSource struct {
	replicas map[string]domain.ReplicaHealth
}

func (s *staticSource) Health() map[string]domain.ReplicaHealth {
	return s.replicas
}

func TestHandleHealth_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		replicas map[string]domain.ReplicaHealth
		wantCode int
		wantBody string
	}{
		{
			name: "healthy returns 200",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: {Status: domain.StatusHealthy},
			},
			wantCode: http.StatusOK,
			wantBody: "healthy",
		},
		{
			name: "degraded still returns 200",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: {Status: domain.StatusHealthy},
				"replica-west":   {Status: domain.StatusUnhealthy},
			},
			wantCode: http.StatusOK,
			wantBody: "degraded",
		},
		{
			name: "critical returns 503",
			replicas: map[string]domain.ReplicaHealth{
				domain.PrimaryID: {Status: domain.StatusUnhealthy},
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "critical",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&staticSource{replicas: tt.replicas}, 0)
			rec := httptest.NewRecorder()
			srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body["status"] != tt.wantBody {
				t.Errorf("body status = %q, want %q", body["status"], tt.wantBody)
			}
		})
	}
}

func TestHandleDetailed_IncludesPerReplicaHealth(t *testing.T) {
	replicas := map[string]domain.ReplicaHealth{
		domain.PrimaryID: {ReplicaID: domain.PrimaryID, Status: domain.StatusHealthy},
		"replica-west":   {ReplicaID: "replica-west", Status: domain.StatusUnhealthy, ErrorCount: 3},
	}
	srv := NewServer(&staticSource{replicas: replicas}, 0)

	rec := httptest.NewRecorder()
	srv.handleDetailed(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if report.SystemStatus != StatusDegraded {
		t.Errorf("system status = %s, want degraded", report.SystemStatus)
	}
	if len(report.Replicas) != 2 {
		t.Fatalf("replicas = %d, want 2", len(report.Replicas))
	}
	if got := report.Replicas["replica-west"].ErrorCount; got != 3 {
		t.Errorf("replica-west error count = %d, want 3", got)
	}
}
