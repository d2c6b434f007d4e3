// Package control wires the data-access core together: endpoint
// clients, replica manager, database façade, recovery engine, and the
// health surfaces.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wayfarerhq/datacore/internal/core/config"
	"github.com/wayfarerhq/datacore/internal/database"
	"github.com/wayfarerhq/datacore/internal/endpoint"
	"github.com/wayfarerhq/datacore/internal/endpoint/postgres"
	"github.com/wayfarerhq/datacore/internal/health"
	redisclient "github.com/wayfarerhq/datacore/internal/infra/redis"
	"github.com/wayfarerhq/datacore/internal/recovery"
	"github.com/wayfarerhq/datacore/internal/recovery/fallback"
	"github.com/wayfarerhq/datacore/internal/routing"
)

// App owns the lifecycle of the data-access core.
type App struct {
	log *slog.Logger
	cfg *config.AppConfig

	manager  *routing.Manager
	db       *database.Service
	recovery *recovery.Service

	redisCache *redisclient.Cache
	httpSrv    *health.Server
	grpcSrv    *health.GRPCServer
}

// New builds the core from configuration. A Redis URL in the config
// selects the shared fallback cache; otherwise the bounded in-memory
// cache is used.
func New(cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	factory := endpoint.Factory(func(url, apiKey string, maxConns int) (endpoint.Client, error) {
		return postgres.NewClient(url, apiKey, maxConns)
	})

	manager := routing.NewManager(cfg.Database, factory, nil, log)
	db := database.NewService(cfg.Database, manager, log)

	app := &App{log: log, cfg: cfg, manager: manager, db: db}

	var cache fallback.Cache
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewCache(cfg.Redis, cfg.Recovery.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis fallback cache: %w", err)
		}
		app.redisCache = rc
		cache = rc
		log.Info("Using Redis fallback cache")
	} else {
		cache = fallback.NewMemoryCache(cfg.Recovery.CacheTTL, cfg.Recovery.CacheMaxEntries, nil)
		log.Info("Using in-memory fallback cache")
	}

	app.recovery = recovery.NewService(cfg.Recovery, cache, nil, log)

	app.httpSrv = health.NewServer(manager, cfg.Server.Port)
	if cfg.Server.GRPCPort > 0 {
		app.grpcSrv = health.NewGRPCServer(manager, cfg.Server.GRPCPort, 0)
	}

	return app, nil
}

// Start connects the database façade and brings up the health
// surfaces.
func (a *App) Start(ctx context.Context) error {
	if err := a.db.Connect(ctx); err != nil {
		return err
	}

	go func() {
		if err := a.httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server stopped", "error", err)
		}
	}()
	if a.grpcSrv != nil {
		go func() {
			if err := a.grpcSrv.Start(); err != nil {
				a.log.Error("gRPC health server stopped", "error", err)
			}
		}()
	}

	a.log.Info("Data-access core started",
		"http_port", a.cfg.Server.Port,
		"grpc_port", a.cfg.Server.GRPCPort,
	)
	return nil
}

// Stop shuts the surfaces down, then releases the replica manager and
// caches.
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if err := a.httpSrv.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.grpcSrv != nil {
		a.grpcSrv.Stop()
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DB exposes the database façade to application code.
func (a *App) DB() *database.Service { return a.db }

// Recovery exposes the error-recovery engine to application code.
func (a *App) Recovery() *recovery.Service { return a.recovery }
