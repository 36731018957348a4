package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"go.uber.org/zap"
)

// Service runs backtests, persists their results and serves queries over them.
// The repository is required; the cache is optional.
type Service struct {
	repo     port.Repository
	cache    port.Cache
	logger   *zap.SugaredLogger
	recorder Recorder
}

func NewService(repo port.Repository, cache port.Cache, logger *zap.SugaredLogger, recorder Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: repo, cache: cache, logger: logger, recorder: recorder}
}

type RunRequest struct {
	Source       port.MarketDataSource
	Strategy     port.Strategy
	StrategyName string
	Listings     []domain.Listing
	Limits       domain.PositionLimits
	Observations port.ObservationProvider
}

// Run loads market data, replays it and stores the outcome. A strategy failure
// still persists the partial result; the failure is returned alongside it.
func (s *Service) Run(ctx context.Context, req RunRequest) (*domain.RunResult, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("%w: no market data source", ErrConfig)
	}
	bt, err := NewBacktest(BacktestConfig{
		Listings:     req.Listings,
		Limits:       req.Limits,
		Strategy:     req.Strategy,
		StrategyName: req.StrategyName,
		Observations: req.Observations,
		Logger:       s.logger,
		Recorder:     s.recorder,
	})
	if err != nil {
		return nil, err
	}
	book, err := req.Source.LoadBook(ctx)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	trades, err := req.Source.LoadTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	res, runErr := bt.Run(book, trades)
	res.ID = uuid.NewString()
	if runErr != nil {
		s.logger.Warnw("backtest aborted", "run", res.ID, "timestamps", res.Timestamps, "error", runErr)
	}
	if err := s.persist(ctx, res); err != nil {
		return res, errors.Join(runErr, err)
	}
	return res, runErr
}

func (s *Service) persist(ctx context.Context, res *domain.RunResult) error {
	summary := res.Summary()
	err := withTx(ctx, s.repo, func(tx port.Tx) error {
		if err := tx.SaveRun(ctx, &summary); err != nil {
			return err
		}
		if err := tx.SaveOrders(ctx, res.ID, res.Orders); err != nil {
			return err
		}
		if err := tx.SaveFills(ctx, res.ID, res.Fills); err != nil {
			return err
		}
		if err := tx.SaveMarketTrades(ctx, res.ID, domain.StagePre, res.MarketTradesPre); err != nil {
			return err
		}
		if err := tx.SaveMarketTrades(ctx, res.ID, domain.StagePost, res.MarketTradesPost); err != nil {
			return err
		}
		return tx.SavePnL(ctx, res.ID, res.PnL)
	})
	if err != nil {
		return fmt.Errorf("persist run %s: %w", res.ID, err)
	}
	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, res.ID, &summary); err != nil {
			s.logger.Warnw("cache summary", "run", res.ID, "error", err)
		}
	}
	return nil
}

// Summary returns the run summary, trying the cache first.
func (s *Service) Summary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	if s.cache != nil {
		if sum, err := s.cache.GetSummary(ctx, runID); err == nil && sum != nil {
			return sum, nil
		}
	}
	sum, err := s.repo.LoadSummary(ctx, runID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSummary(ctx, runID, sum)
	}
	return sum, nil
}

func (s *Service) ListRuns(ctx context.Context) ([]domain.RunSummary, error) {
	return s.repo.ListRuns(ctx)
}

func (s *Service) Orders(ctx context.Context, runID string) ([]domain.OrderRecord, error) {
	if _, err := s.Summary(ctx, runID); err != nil {
		return nil, err
	}
	return s.repo.LoadOrders(ctx, runID)
}

func (s *Service) Fills(ctx context.Context, runID string) ([]domain.Trade, error) {
	if _, err := s.Summary(ctx, runID); err != nil {
		return nil, err
	}
	return s.repo.LoadFills(ctx, runID)
}

func (s *Service) MarketTrades(ctx context.Context, runID string, stage domain.TradeStage) ([]domain.Trade, error) {
	if stage != domain.StagePre && stage != domain.StagePost {
		return nil, fmt.Errorf("unknown trade stage %q", stage)
	}
	if _, err := s.Summary(ctx, runID); err != nil {
		return nil, err
	}
	return s.repo.LoadMarketTrades(ctx, runID, stage)
}

// PnL returns the PnL series of a run, restricted to symbol when it is not empty.
func (s *Service) PnL(ctx context.Context, runID, symbol string) ([]domain.PnLRecord, error) {
	if _, err := s.Summary(ctx, runID); err != nil {
		return nil, err
	}
	return s.repo.LoadPnL(ctx, runID, symbol)
}
