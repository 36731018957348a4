package core

import (
	"maps"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
)

// Ledger tracks signed position and cash per symbol. It trusts its caller to
// have limit-checked every fill it applies.
type Ledger struct {
	limits   domain.PositionLimits
	position map[string]int64
	cash     map[string]decimal.Decimal
}

func NewLedger(limits domain.PositionLimits) *Ledger {
	return &Ledger{
		limits:   limits,
		position: make(map[string]int64),
		cash:     make(map[string]decimal.Decimal),
	}
}

func (l *Ledger) Position(symbol string) int64 {
	return l.position[symbol]
}

func (l *Ledger) Cash(symbol string) decimal.Decimal {
	if c, ok := l.cash[symbol]; ok {
		return c
	}
	return decimal.Zero
}

// WithinLimit reports whether holding prospective units of symbol respects its limit.
// A symbol without a configured limit can never be held.
func (l *Ledger) WithinLimit(symbol string, prospective int64) bool {
	limit, ok := l.limits.Limit(symbol)
	if !ok {
		return false
	}
	if prospective < 0 {
		prospective = -prospective
	}
	return prospective <= limit
}

// ApplyFill books a fill: position moves by qty, cash by -price*qty.
func (l *Ledger) ApplyFill(symbol string, price decimal.Decimal, qty int64) {
	l.position[symbol] += qty
	l.cash[symbol] = l.Cash(symbol).Sub(price.Mul(decimal.NewFromInt(qty)))
}

// MarkToMid values the symbol's cash and open position at mid.
func (l *Ledger) MarkToMid(symbol string, mid decimal.Decimal) decimal.Decimal {
	return l.Cash(symbol).Add(mid.Mul(decimal.NewFromInt(l.Position(symbol))))
}

// Positions returns a copy of the positions of every symbol traded so far.
func (l *Ledger) Positions() map[string]int64 {
	return maps.Clone(l.position)
}
