// Package recovery is the fallback engine consulted by any caller
// (database or external-service client) on failure. It classifies the
// failure's severity, selects a strategy, executes it, and records
// the outcome in a bounded history.
package recovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/wayfarerhq/datacore/internal/core/config"
	"github.com/wayfarerhq/datacore/internal/core/domain"
	"github.com/wayfarerhq/datacore/internal/metrics"
	"github.com/wayfarerhq/datacore/internal/recovery/fallback"
)

// Operation is any invokable dependent call, identified by the
// (service, method, params) of its Call. Transport-agnostic.
type Operation func(ctx context.Context, params map[string]any) (any, error)

// Call carries the context of a failed operation into HandleError.
type Call struct {
	Service    string
	Method     string
	Params     map[string]any
	RetryCount int
	// Invoke re-runs the original operation; nil disables RETRY.
	Invoke Operation
}

// Service is the error-recovery engine.
type Service struct {
	log   *slog.Logger
	clock clock.Clock
	cfg   config.RecoveryConfig
	cache fallback.Cache

	mu                sync.Mutex
	alternates        map[string][]Alternate // category -> providers
	serviceCategories map[string]string      // service name -> category
	history           []domain.ErrorRecord
	totalErrors       int
	byService         map[string]int
	bySeverity        map[domain.Severity]int
}

// NewService creates the recovery engine over a fallback cache.
func NewService(cfg config.RecoveryConfig, cache fallback.Cache, clk clock.Clock, log *slog.Logger) *Service {
	if clk == nil {
		clk = clock.WallClock
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 500
	}
	if cache == nil {
		cache = fallback.NewMemoryCache(cfg.CacheTTL, cfg.CacheMaxEntries, clk)
	}
	return &Service{
		log:               log,
		clock:             clk,
		cfg:               cfg,
		cache:             cache,
		alternates:        make(map[string][]Alternate),
		serviceCategories: make(map[string]string),
		byService:         make(map[string]int),
		bySeverity:        make(map[domain.Severity]int),
	}
}

// MapService pins a service name to a coarse category, overriding the
// name-based inference.
func (s *Service) MapService(service, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceCategories[service] = category
}

// HandleError classifies a failed operation, executes the selected
// recovery strategy, and records the outcome. It always returns a
// RecoveryResult, successful or terminal.
func (s *Service) HandleError(ctx context.Context, callErr error, call Call) *domain.RecoveryResult {
	start := s.clock.Now()

	category := Classify(callErr)
	severity := SeverityOf(category)
	s.record(call, severity, callErr)

	strategy := SelectStrategy(severity, call.RetryCount, s.hasAlternate(call.Service))

	var result *domain.RecoveryResult
	switch strategy {
	case domain.StrategyFailFast:
		result = failure(strategy, "critical failure, not recoverable: "+callErr.Error())
	case domain.StrategyRetry:
		result = s.executeRetry(ctx, call)
	case domain.StrategyAlternativeService:
		result = s.executeAlternative(ctx, call)
	case domain.StrategyCachedResponse:
		result = s.executeCached(ctx, call)
	default:
		result = s.executeDegradation(call)
	}

	result.ExecutionTime = s.clock.Now().Sub(start)

	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	metrics.RecoveryTotal.WithLabelValues(string(result.Strategy), outcome).Inc()
	s.log.Info("Handled failure",
		"service", call.Service,
		"method", call.Method,
		"severity", severity,
		"strategy", result.Strategy,
		"recovered", result.Success,
	)
	return result
}

// StoreSuccess proactively stores a successful result for future
// fallback lookups.
func (s *Service) StoreSuccess(ctx context.Context, service, method string, params map[string]any, data any) error {
	return s.cache.Put(ctx, service, method, params, data)
}

// record appends to the bounded history and updates counters.
func (s *Service) record(call Call, severity domain.Severity, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, domain.ErrorRecord{
		ID:            uuid.New().String(),
		Service:       call.Service,
		Method:        call.Method,
		Severity:      severity,
		RetryCount:    call.RetryCount,
		Timestamp:     s.clock.Now(),
		OriginalError: err.Error(),
	})
	if len(s.history) > s.cfg.HistoryLimit {
		s.history = s.history[len(s.history)-s.cfg.HistoryLimit:]
	}
	s.totalErrors++
	s.byService[call.Service]++
	s.bySeverity[severity]++
}

// Stats reports recovery totals and the current cache size.
type Stats struct {
	TotalErrors int                     `json:"total_errors"`
	ByService   map[string]int          `json:"by_service"`
	BySeverity  map[domain.Severity]int `json:"by_severity"`
	CacheSize   int                     `json:"cache_size"`
}

// Stats returns a snapshot of the engine's counters.
func (s *Service) Stats(ctx context.Context) Stats {
	size, err := s.cache.Size(ctx)
	if err != nil {
		s.log.Warn("Failed to read cache size", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		TotalErrors: s.totalErrors,
		ByService:   make(map[string]int, len(s.byService)),
		BySeverity:  make(map[domain.Severity]int, len(s.bySeverity)),
		CacheSize:   size,
	}
	for k, v := range s.byService {
		st.ByService[k] = v
	}
	for k, v := range s.bySeverity {
		st.BySeverity[k] = v
	}
	return st
}

// History returns a copy of the bounded error history.
func (s *Service) History() []domain.ErrorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ErrorRecord, len(s.history))
	copy(out, s.history)
	return out
}

func failure(strategy domain.Strategy, msg string) *domain.RecoveryResult {
	return &domain.RecoveryResult{Strategy: strategy, Error: msg}
}
