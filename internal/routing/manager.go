// Package routing owns the registry of database endpoints, assesses
// their health continuously, and selects an endpoint per query.
//
// Selection rules:
//   - WRITE resolves to the primary unconditionally.
//   - READ, VECTOR_SEARCH and ANALYTICS round-robin over the healthy,
//     enabled, non-primary replicas; when none qualify they fall back
//     to the primary.
//   - Anything else resolves to the primary.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/wayfarerhq/datacore/internal/core/config"
	"github.com/wayfarerhq/datacore/internal/core/domain"
	"github.com/wayfarerhq/datacore/internal/endpoint"
	"github.com/wayfarerhq/datacore/internal/metrics"
)

// ErrNoClient indicates that neither the resolved endpoint nor the
// primary has a live client.
var ErrNoClient = errors.New("no client available")

// healthState pairs the exported health snapshot with probe counters
// used to derive uptime.
type healthState struct {
	domain.ReplicaHealth
	probes   int
	probesOK int
}

// Manager routes queries between the primary and read replicas.
type Manager struct {
	log     *slog.Logger
	clock   clock.Clock
	factory endpoint.Factory

	interval     time.Duration
	probeTimeout time.Duration

	mu      sync.RWMutex
	cfg     config.DatabaseConfig
	order   []string // replica registration order, primary excluded
	configs map[string]domain.ReplicaConfig
	clients map[string]endpoint.Client
	health  map[string]*healthState
	counter uint64

	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewManager creates a manager over the given settings. The settings
// are read once at Initialize. A nil clock defaults to the wall clock.
func NewManager(cfg config.DatabaseConfig, factory endpoint.Factory, clk clock.Clock, log *slog.Logger) *Manager {
	if clk == nil {
		clk = clock.WallClock
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:          log,
		clock:        clk,
		factory:      factory,
		cfg:          cfg,
		interval:     cfg.HealthCheckInterval,
		probeTimeout: cfg.ProbeTimeout,
		configs:      make(map[string]domain.ReplicaConfig),
		clients:      make(map[string]endpoint.Client),
		health:       make(map[string]*healthState),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Initialize loads the endpoint configs, opens one long-lived client
// per enabled endpoint, probes each once, and starts the background
// health-check loop. Endpoints whose client creation fails are
// registered UNHEALTHY rather than omitted, so the probe loop can
// recover them later.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	for _, c := range m.cfg.Endpoints() {
		m.configs[c.ID] = c
		if c.ID != domain.PrimaryID {
			m.order = append(m.order, c.ID)
		}
		m.health[c.ID] = &healthState{ReplicaHealth: domain.ReplicaHealth{
			ReplicaID: c.ID,
			Status:    domain.StatusUnhealthy,
		}}

		cl, err := m.factory(c.URL, c.APIKey, c.MaxConns)
		if err != nil {
			m.log.Warn("Failed to create endpoint client", "replica", c.ID, "error", err)
			continue
		}
		m.clients[c.ID] = cl
	}
	m.mu.Unlock()

	m.probeAll(ctx)

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	go m.run()

	m.log.Info("Replica manager initialized",
		"replicas", len(m.order),
		"interval", m.interval,
	)
	return nil
}

// ReplicaForQuery resolves the endpoint id for a query type.
func (m *Manager) ReplicaForQuery(qt domain.QueryType) string {
	if qt == domain.QueryWrite || !qt.ReadsFromReplica() {
		return domain.PrimaryID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	healthy := m.healthyReplicasLocked()
	if len(healthy) == 0 {
		return domain.PrimaryID
	}

	selected := healthy[m.counter%uint64(len(healthy))]
	m.counter++
	return selected
}

// healthyReplicasLocked returns the enabled, HEALTHY, non-primary
// replica ids in registration order. Caller holds m.mu.
func (m *Manager) healthyReplicasLocked() []string {
	var out []string
	for _, id := range m.order {
		cfg, ok := m.configs[id]
		if !ok || !cfg.Enabled {
			continue
		}
		if h := m.health[id]; h != nil && h.Status == domain.StatusHealthy {
			out = append(out, id)
		}
	}
	return out
}

// Conn is a scoped connection to one resolved endpoint. Release must
// be called exactly once with the error outcome of the work done on
// it; a non-nil error counts against a non-primary replica's health.
type Conn struct {
	ReplicaID string
	Region    string
	Client    endpoint.Client

	m        *Manager
	qt       domain.QueryType
	released bool
}

// Acquire resolves an endpoint for the query type and returns a scoped
// connection. A resolved endpoint without a live client falls back to
// the primary; if the primary has no client either, ErrNoClient is
// returned.
func (m *Manager) Acquire(_ context.Context, qt domain.QueryType, region string) (*Conn, error) {
	id := m.ReplicaForQuery(qt)

	m.mu.RLock()
	cl := m.clients[id]
	if cl == nil && id != domain.PrimaryID {
		m.log.Debug("Replica has no client, substituting primary", "replica", id)
		id = domain.PrimaryID
		cl = m.clients[id]
	}
	m.mu.RUnlock()

	if cl == nil {
		return nil, fmt.Errorf("%w for endpoint %q", ErrNoClient, id)
	}

	metrics.QueriesTotal.WithLabelValues(string(qt), id).Inc()
	return &Conn{ReplicaID: id, Region: region, Client: cl, m: m, qt: qt}, nil
}

// Release reports the outcome of the work done on the connection.
func (c *Conn) Release(err error) {
	if c.released {
		return
	}
	c.released = true
	if err == nil {
		return
	}
	metrics.QueryErrorsTotal.WithLabelValues(string(c.qt), c.ReplicaID).Inc()
	if c.ReplicaID != domain.PrimaryID {
		c.m.reportFailure(c.ReplicaID)
	}
}

// WithConn acquires a connection, runs fn on it, and releases it with
// fn's outcome. The original error is returned to the caller.
func (m *Manager) WithConn(ctx context.Context, qt domain.QueryType, region string, fn func(replicaID string, cl endpoint.Client) error) error {
	conn, err := m.Acquire(ctx, qt, region)
	if err != nil {
		return err
	}
	err = fn(conn.ReplicaID, conn.Client)
	conn.Release(err)
	return err
}

// PrimaryClient returns the primary's client for write paths that
// must never route through replica selection.
func (m *Manager) PrimaryClient() (endpoint.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl := m.clients[domain.PrimaryID]
	if cl == nil {
		return nil, fmt.Errorf("%w for endpoint %q", ErrNoClient, domain.PrimaryID)
	}
	return cl, nil
}

// reportFailure is the query-path complement of the probe loop: it
// catches failures faster than the poll interval.
func (m *Manager) reportFailure(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.health[id]
	if !ok {
		return
	}
	h.ErrorCount++
	if h.ErrorCount >= domain.ErrorThreshold && h.Status == domain.StatusHealthy {
		h.Status = domain.StatusUnhealthy
		metrics.ReplicaHealthy.WithLabelValues(id).Set(0)
		m.log.Warn("Replica demoted after repeated query failures",
			"replica", id,
			"error_count", h.ErrorCount,
		)
	}
}

// Health returns a snapshot of all endpoint health states.
func (m *Manager) Health() map[string]domain.ReplicaHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]domain.ReplicaHealth, len(m.health))
	for id, h := range m.health {
		out[id] = h.ReplicaHealth
	}
	return out
}

// HealthFor returns the health snapshot for a single endpoint.
func (m *Manager) HealthFor(id string) (domain.ReplicaHealth, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.health[id]
	if !ok {
		return domain.ReplicaHealth{}, false
	}
	return h.ReplicaHealth, true
}

// Configs returns a snapshot of all registered endpoint configs.
func (m *Manager) Configs() []domain.ReplicaConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ReplicaConfig, 0, len(m.configs))
	if c, ok := m.configs[domain.PrimaryID]; ok {
		out = append(out, c)
	}
	for _, id := range m.order {
		out = append(out, m.configs[id])
	}
	return out
}

// Close stops the health-check loop, waits for it to exit, then
// closes all clients and clears shared state. In-flight queries are
// not cancelled.
func (m *Manager) Close() error {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()

	if started {
		close(m.stop)
		<-m.done
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, cl := range m.clients {
		if err := cl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	m.clients = make(map[string]endpoint.Client)
	m.configs = make(map[string]domain.ReplicaConfig)
	m.health = make(map[string]*healthState)
	m.order = nil

	return errors.Join(errs...)
}
