// Package app wires storage, cache and metrics from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/olyamironova/exchange-backtest/internal/adapter/cache"
	"github.com/olyamironova/exchange-backtest/internal/adapter/in_memory"
	"github.com/olyamironova/exchange-backtest/internal/adapter/pg"
	grpcapi "github.com/olyamironova/exchange-backtest/internal/api/grpc"
	"github.com/olyamironova/exchange-backtest/internal/config"
	"github.com/olyamironova/exchange-backtest/internal/core"
	"github.com/olyamironova/exchange-backtest/internal/metrics"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"go.uber.org/zap"
)

type App struct {
	Service *core.Service
	Metrics *metrics.Metrics
	// Deps are the external stores the health check pings.
	Deps    map[string]grpcapi.Pinger
	closers []func()
}

// New connects to Postgres and Redis when they are configured and falls back
// to in-memory storage otherwise.
func New(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*App, error) {
	a := &App{Metrics: metrics.New(), Deps: make(map[string]grpcapi.Pinger)}

	var repo port.Repository
	if cfg.Postgres.DSN != "" {
		pgRepo, err := pg.NewPgRepo(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pgRepo.Close)
		if cfg.Postgres.Migrate {
			if err := pgRepo.Migrate(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
		a.Deps["postgres"] = pgRepo
		repo = pgRepo
	} else {
		logger.Infow("no postgres dsn configured, keeping runs in memory")
		repo = in_memory.NewMemoryRepo()
	}

	var c port.Cache
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		a.Deps["redis"] = rc
		c = rc
	} else {
		c = in_memory.NewCache()
	}

	a.Service = core.NewService(repo, c, logger, a.Metrics)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
