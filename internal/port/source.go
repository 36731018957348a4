package port

import (
	"context"

	"github.com/olyamironova/exchange-backtest/internal/domain"
)

// MarketDataSource yields the historical book snapshots and trade tape.
type MarketDataSource interface {
	LoadBook(ctx context.Context) ([]domain.BookRow, error)
	LoadTrades(ctx context.Context) ([]domain.Trade, error)
}
