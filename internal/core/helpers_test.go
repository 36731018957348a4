package core

import (
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
)

const sym = "AMETHYSTS"

func px(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func nd(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func q(price, volume int64) domain.Quote {
	return domain.Quote{Price: nd(price), Volume: volume, HasVolume: true}
}

// depth builds a book from bid and ask {price, size} pairs given best first.
func depth(bids, asks [][2]int64) *domain.OrderDepth {
	d := domain.NewOrderDepth()
	for _, b := range bids {
		d.BuyOrders.Set(px(b[0]), b[1])
	}
	for _, a := range asks {
		d.SellOrders.Set(px(a[0]), -a[1])
	}
	return d
}

func tick(d *domain.OrderDepth, mid int64, tape ...domain.Trade) *Tick {
	return &Tick{
		Timestamp: 100,
		Depths:    map[string]*domain.OrderDepth{sym: d},
		Mids:      map[string]decimal.Decimal{sym: px(mid)},
		Tape:      tape,
	}
}

func tapeTrade(symbol string, price, qty int64) domain.Trade {
	return domain.Trade{Symbol: symbol, Price: px(price), Quantity: qty, Timestamp: 100}
}

type strategyFunc func(domain.TradingState) (domain.Decision, error)

func (f strategyFunc) Run(s domain.TradingState) (domain.Decision, error) { return f(s) }

type countingRecorder struct {
	aggressive, passive, rejected, ticks int
}

func (r *countingRecorder) Fill(_ string, aggressive bool) {
	if aggressive {
		r.aggressive++
	} else {
		r.passive++
	}
}
func (r *countingRecorder) LimitRejected(string) { r.rejected++ }
func (r *countingRecorder) TickProcessed()       { r.ticks++ }
