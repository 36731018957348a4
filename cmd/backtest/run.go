package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/olyamironova/exchange-backtest/internal/adapter/csv"
	"github.com/olyamironova/exchange-backtest/internal/app"
	"github.com/olyamironova/exchange-backtest/internal/config"
	"github.com/olyamironova/exchange-backtest/internal/core"
	"github.com/olyamironova/exchange-backtest/internal/strategy"
	"go.uber.org/zap"
)

// run replays the configured data once and writes the result files. A
// strategy failure still writes what was produced before it.
func run(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) error {
	strat, err := strategy.New(cfg.Strategy.Name, cfg.Strategy.Params, cfg.PositionLimits)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	src := csv.NewSource(cfg.Data.Prices, cfg.Data.Trades, cfg.Data.DelimiterRune())
	res, runErr := a.Service.Run(ctx, core.RunRequest{
		Source:       src,
		Strategy:     strat,
		StrategyName: cfg.Strategy.Name,
		Listings:     cfg.Listings,
		Limits:       cfg.PositionLimits,
	})
	a.Metrics.RunFinished(runErr)
	if res == nil {
		return runErr
	}

	rows, err := src.LoadBook(ctx)
	if err != nil {
		return errors.Join(runErr, err)
	}
	if err := csv.WriteResult(cfg.OutputDir, src.Delimiter, rows, cfg.Listings, res); err != nil {
		return errors.Join(runErr, fmt.Errorf("write result: %w", err))
	}

	sum := res.Summary()
	logger.Infow("backtest written",
		"run", sum.ID,
		"dir", cfg.OutputDir,
		"timestamps", sum.Timestamps,
		"fills", sum.Fills,
		"total_pnl", sum.TotalPnL.String(),
	)
	for _, s := range sum.Symbols {
		logger.Infow("symbol", "symbol", s.Symbol, "position", s.Position, "pnl", s.PnL.String(), "fills", s.Fills)
	}
	return runErr
}
