package routing

import (
	"context"
	"sync"
	"time"

	"github.com/wayfarerhq/datacore/internal/core/domain"
	"github.com/wayfarerhq/datacore/internal/metrics"
)

// run is the background health-check loop. It probes every known
// endpoint each tick until Close is called. It is deliberately
// independent of query-path failure reporting: the loop catches
// silently degraded replicas between queries, the query path catches
// failures faster than the poll interval.
func (m *Manager) run() {
	defer close(m.done)

	for {
		select {
		case <-m.stop:
			return
		case <-m.clock.After(m.interval):
			m.probeAll(context.Background())
		}
	}
}

// probeAll probes every registered endpoint concurrently. Endpoints
// that have no client (initial creation failed) get one more creation
// attempt first, so a replica that was down at startup can rejoin.
func (m *Manager) probeAll(ctx context.Context) {
	m.mu.RLock()
	targets := make(map[string]struct{}, len(m.configs))
	for id := range m.configs {
		targets[id] = struct{}{}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for id := range targets {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			m.probeOne(ctx, id)
		}(id)
	}
	wg.Wait()
}

func (m *Manager) probeOne(ctx context.Context, id string) {
	m.mu.RLock()
	cl := m.clients[id]
	cfg, hasCfg := m.configs[id]
	m.mu.RUnlock()
	if !hasCfg {
		return
	}

	if cl == nil {
		newCl, err := m.factory(cfg.URL, cfg.APIKey, cfg.MaxConns)
		if err != nil {
			m.recordProbe(id, 0, false)
			return
		}
		m.mu.Lock()
		// Another goroutine may have raced us here; keep the first.
		if existing := m.clients[id]; existing != nil {
			_ = newCl.Close()
			newCl = existing
		} else {
			m.clients[id] = newCl
		}
		m.mu.Unlock()
		cl = newCl
		m.log.Info("Recreated endpoint client", "replica", id)
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	start := m.clock.Now()
	err := cl.Probe(probeCtx)
	m.recordProbe(id, m.clock.Now().Sub(start), err == nil)
}

// recordProbe applies a probe outcome to the endpoint's health state.
// Success marks HEALTHY and decrements the error count (floor 0);
// failure or timeout increments it and marks UNHEALTHY.
func (m *Manager) recordProbe(id string, latency time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, exists := m.health[id]
	if !exists {
		return
	}

	h.LastCheck = m.clock.Now()
	h.probes++
	if ok {
		h.probesOK++
		h.Latency = latency
		if h.ErrorCount > 0 {
			h.ErrorCount--
		}
		if h.Status != domain.StatusHealthy {
			m.log.Info("Replica restored", "replica", id)
		}
		h.Status = domain.StatusHealthy
		metrics.ReplicaHealthy.WithLabelValues(id).Set(1)
		metrics.ProbeLatency.WithLabelValues(id).Observe(latency.Seconds())
	} else {
		h.ErrorCount++
		if h.Status != domain.StatusUnhealthy {
			m.log.Warn("Replica probe failed", "replica", id, "error_count", h.ErrorCount)
		}
		h.Status = domain.StatusUnhealthy
		metrics.ReplicaHealthy.WithLabelValues(id).Set(0)
		metrics.ProbeFailuresTotal.WithLabelValues(id).Inc()
	}
	h.UptimePercentage = float64(h.probesOK) / float64(h.probes) * 100
}
