package dto

import (
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/strategy"
	"github.com/shopspring/decimal"
)

// RunBacktestRequest starts a replay. Empty fields fall back to the server defaults.
type RunBacktestRequest struct {
	Strategy       string                `json:"strategy"`
	Params         strategy.Params       `json:"params"`
	Prices         string                `json:"prices"`
	Trades         string                `json:"trades"`
	Listings       []domain.Listing      `json:"listings,omitempty"`
	PositionLimits domain.PositionLimits `json:"position_limits,omitempty"`
}

type RunBacktestResponse struct {
	Summary domain.RunSummary `json:"summary"`
	Error   string            `json:"error,omitempty"`
}

type ListRunsResponse struct {
	Runs []domain.RunSummary `json:"runs"`
}

type Order struct {
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

type Trade struct {
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Buyer     string          `json:"buyer"`
	Seller    string          `json:"seller"`
}

type TradesResponse struct {
	Trades []Trade `json:"trades"`
}

type PnLResponse struct {
	PnL []domain.PnLRecord `json:"pnl"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromOrders(orders []domain.OrderRecord) []Order {
	res := make([]Order, len(orders))
	for i, o := range orders {
		res[i] = Order{Timestamp: o.Timestamp, Symbol: o.Symbol, Price: o.Price, Quantity: o.Quantity}
	}
	return res
}

func FromTrades(trades []domain.Trade) []Trade {
	res := make([]Trade, len(trades))
	for i, t := range trades {
		res[i] = Trade{
			Timestamp: t.Timestamp,
			Symbol:    t.Symbol,
			Price:     t.Price,
			Quantity:  t.Quantity,
			Buyer:     t.Buyer.String(),
			Seller:    t.Seller.String(),
		}
	}
	return res
}
