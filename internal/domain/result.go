package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PnLRecord is the mark-to-mid valuation of one symbol at one timestamp.
type PnLRecord struct {
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	MidPrice  decimal.Decimal `json:"mid_price"`
	Position  int64           `json:"position"`
	Cash      decimal.Decimal `json:"cash"`
	PnL       decimal.Decimal `json:"pnl"`
}

type ConversionRecord struct {
	Timestamp   int64 `json:"timestamp"`
	Conversions int   `json:"conversions"`
}

// RunResult holds every output sequence of one replay.
type RunResult struct {
	ID               string
	Strategy         string
	StartedAt        time.Time
	FinishedAt       time.Time
	Timestamps       int
	Orders           []OrderRecord
	Fills            []Trade
	MarketTradesPre  []Trade
	MarketTradesPost []Trade
	PnL              []PnLRecord
	Conversions      []ConversionRecord
}

type SymbolSummary struct {
	Symbol   string          `json:"symbol"`
	Position int64           `json:"position"`
	Cash     decimal.Decimal `json:"cash"`
	PnL      decimal.Decimal `json:"pnl"`
	Fills    int             `json:"fills"`
}

type RunSummary struct {
	ID         string          `json:"id"`
	Strategy   string          `json:"strategy"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Timestamps int             `json:"timestamps"`
	Fills      int             `json:"fills"`
	TotalPnL   decimal.Decimal `json:"total_pnl"`
	Symbols    []SymbolSummary `json:"symbols"`
}

// Summary reduces a run to its final per-symbol state.
func (r *RunResult) Summary() RunSummary {
	s := RunSummary{
		ID:         r.ID,
		Strategy:   r.Strategy,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Timestamps: r.Timestamps,
		Fills:      len(r.Fills),
	}
	idx := make(map[string]int)
	for _, p := range r.PnL {
		i, ok := idx[p.Symbol]
		if !ok {
			i = len(s.Symbols)
			idx[p.Symbol] = i
			s.Symbols = append(s.Symbols, SymbolSummary{Symbol: p.Symbol})
		}
		s.Symbols[i].Position = p.Position
		s.Symbols[i].Cash = p.Cash
		s.Symbols[i].PnL = p.PnL
	}
	for _, f := range r.Fills {
		if i, ok := idx[f.Symbol]; ok {
			s.Symbols[i].Fills++
		}
	}
	s.TotalPnL = decimal.Zero
	for _, sym := range s.Symbols {
		s.TotalPnL = s.TotalPnL.Add(sym.PnL)
	}
	return s
}
