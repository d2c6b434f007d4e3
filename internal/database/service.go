// Package database provides a single logical database façade that
// hides the primary/replica topology from application code. Writes
// are pinned to the primary; reads route through the replica manager.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/wayfarerhq/datacore/internal/core/config"
	"github.com/wayfarerhq/datacore/internal/core/domain"
	"github.com/wayfarerhq/datacore/internal/endpoint"
	"github.com/wayfarerhq/datacore/internal/routing"
)

// Router is the replica-manager contract the façade depends on.
type Router interface {
	Initialize(ctx context.Context) error
	WithConn(ctx context.Context, qt domain.QueryType, region string, fn func(replicaID string, cl endpoint.Client) error) error
	PrimaryClient() (endpoint.Client, error)
	Health() map[string]domain.ReplicaHealth
	Configs() []domain.ReplicaConfig
	Close() error
}

var _ Router = (*routing.Manager)(nil)

// Service is the database façade.
type Service struct {
	cfg    config.DatabaseConfig
	router Router
	log    *slog.Logger
}

// NewService creates the façade over a replica manager.
func NewService(cfg config.DatabaseConfig, router Router, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, router: router, log: log}
}

// Connect validates the endpoint configuration shape before any
// network call, then initializes the replica manager. Malformed
// configuration fails fast with a typed ConnectionError.
func (s *Service) Connect(ctx context.Context) error {
	if err := validateEndpoint(s.cfg.Primary.URL, s.cfg.Primary.APIKey); err != nil {
		return err
	}
	for _, r := range s.cfg.Replicas {
		if !r.Enabled {
			continue
		}
		if err := validateEndpoint(r.URL, r.APIKey); err != nil {
			return &ConnectionError{Code: CodeBadConfig, Reason: fmt.Sprintf("replica %q", r.ID), Err: err}
		}
	}

	if err := s.router.Initialize(ctx); err != nil {
		return &ConnectionError{Code: CodeNoClient, Reason: "replica manager initialization failed", Err: err}
	}
	return nil
}

func validateEndpoint(rawURL, apiKey string) error {
	if rawURL == "" {
		return &ConnectionError{Code: CodeBadConfig, Reason: "endpoint url is empty"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ConnectionError{Code: CodeBadConfig, Reason: "endpoint url is malformed", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return &ConnectionError{Code: CodeBadConfig, Reason: fmt.Sprintf("endpoint url %q lacks scheme or host", rawURL)}
	}
	if strings.ContainsAny(apiKey, " \t\n") {
		return &ConnectionError{Code: CodeBadConfig, Reason: "api key contains whitespace"}
	}
	return nil
}

// Close releases the replica manager and all endpoint clients.
func (s *Service) Close() error {
	return s.router.Close()
}

// HealthCheck probes the primary endpoint.
func (s *Service) HealthCheck(ctx context.Context) error {
	cl, err := s.router.PrimaryClient()
	if err != nil {
		return err
	}
	return cl.Probe(ctx)
}

// Insert writes one row. Writes always execute against the primary
// client directly, preserving read-your-own-write for the caller.
func (s *Service) Insert(ctx context.Context, table string, data endpoint.Record) ([]endpoint.Record, error) {
	cl, err := s.router.PrimaryClient()
	if err != nil {
		return nil, err
	}
	recs, err := cl.Insert(ctx, table, data)
	return recs, opError("insert", table, err)
}

// Update modifies matching rows on the primary.
func (s *Service) Update(ctx context.Context, table string, data endpoint.Record, filters endpoint.Filter) ([]endpoint.Record, error) {
	cl, err := s.router.PrimaryClient()
	if err != nil {
		return nil, err
	}
	recs, err := cl.Update(ctx, table, data, filters)
	return recs, opError("update", table, err)
}

// Delete removes matching rows on the primary.
func (s *Service) Delete(ctx context.Context, table string, filters endpoint.Filter) ([]endpoint.Record, error) {
	cl, err := s.router.PrimaryClient()
	if err != nil {
		return nil, err
	}
	recs, err := cl.Delete(ctx, table, filters)
	return recs, opError("delete", table, err)
}

// Upsert inserts or updates one row on the primary.
func (s *Service) Upsert(ctx context.Context, table string, data endpoint.Record, conflictColumns []string) ([]endpoint.Record, error) {
	cl, err := s.router.PrimaryClient()
	if err != nil {
		return nil, err
	}
	recs, err := cl.Upsert(ctx, table, data, conflictColumns)
	return recs, opError("upsert", table, err)
}

// Select reads rows through replica routing. The region hint is
// carried for a future region-aware strategy; baseline routing is
// round robin.
func (s *Service) Select(ctx context.Context, table string, q endpoint.Query, region string) ([]endpoint.Record, error) {
	var recs []endpoint.Record
	err := s.router.WithConn(ctx, domain.QueryRead, region, func(_ string, cl endpoint.Client) error {
		var err error
		recs, err = cl.Select(ctx, table, q)
		return err
	})
	return recs, opError("select", table, err)
}

// Count counts matching rows through replica routing.
func (s *Service) Count(ctx context.Context, table string, filters endpoint.Filter, region string) (int64, error) {
	var count int64
	err := s.router.WithConn(ctx, domain.QueryRead, region, func(_ string, cl endpoint.Client) error {
		var err error
		count, err = cl.Count(ctx, table, filters)
		return err
	})
	return count, opError("count", table, err)
}

// VectorSearch runs a similarity search through replica routing.
func (s *Service) VectorSearch(ctx context.Context, table, column string, vector []float32, limit int, threshold float64, region string) ([]endpoint.Record, error) {
	var recs []endpoint.Record
	err := s.router.WithConn(ctx, domain.QueryVectorSearch, region, func(_ string, cl endpoint.Client) error {
		var err error
		recs, err = cl.VectorSearch(ctx, table, column, vector, limit, threshold)
		return err
	})
	return recs, opError("vector_search", table, err)
}

// ExecSQL runs a raw statement on the administrative/analytics path.
func (s *Service) ExecSQL(ctx context.Context, query string, args ...any) ([]endpoint.Record, error) {
	var recs []endpoint.Record
	err := s.router.WithConn(ctx, domain.QueryAnalytics, "", func(_ string, cl endpoint.Client) error {
		var err error
		recs, err = cl.ExecSQL(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, opError("exec_sql", "", err)
	}
	return recs, nil
}

// ReplicaHealth returns a snapshot of all endpoint health states.
func (s *Service) ReplicaHealth() map[string]domain.ReplicaHealth {
	return s.router.Health()
}

// ReplicaMetrics pairs registered configs with their health snapshots.
type ReplicaMetrics struct {
	Configs []domain.ReplicaConfig          `json:"configs"`
	Health  map[string]domain.ReplicaHealth `json:"health"`
}

// ReplicaMetricsSnapshot returns configs and health in one view.
func (s *Service) ReplicaMetricsSnapshot() ReplicaMetrics {
	return ReplicaMetrics{
		Configs: s.router.Configs(),
		Health:  s.router.Health(),
	}
}

// IsNoClient reports whether the error means no endpoint client was
// available at all.
func IsNoClient(err error) bool {
	return errors.Is(err, routing.ErrNoClient)
}
