package port

import (
	"context"
	"errors"

	"github.com/olyamironova/exchange-backtest/internal/domain"
)

type Repository interface {
	BeginTx(ctx context.Context) (Tx, error)
	LoadSummary(ctx context.Context, runID string) (*domain.RunSummary, error)
	ListRuns(ctx context.Context) ([]domain.RunSummary, error)
	LoadOrders(ctx context.Context, runID string) ([]domain.OrderRecord, error)
	LoadFills(ctx context.Context, runID string) ([]domain.Trade, error)
	LoadMarketTrades(ctx context.Context, runID string, stage domain.TradeStage) ([]domain.Trade, error)
	LoadPnL(ctx context.Context, runID, symbol string) ([]domain.PnLRecord, error)
}

type Tx interface {
	SaveRun(ctx context.Context, s *domain.RunSummary) error
	SaveOrders(ctx context.Context, runID string, orders []domain.OrderRecord) error
	SaveFills(ctx context.Context, runID string, fills []domain.Trade) error
	SaveMarketTrades(ctx context.Context, runID string, stage domain.TradeStage, trades []domain.Trade) error
	SavePnL(ctx context.Context, runID string, pnl []domain.PnLRecord) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ErrNotFound is returned by adapters when a run does not exist.
var ErrNotFound = errors.New("not found")
