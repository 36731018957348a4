package core

import (
	"slices"

	"github.com/olyamironova/exchange-backtest/internal/domain"
)

// TapeIndex groups the historical trade tape by timestamp. The working set of
// a timestamp may be replaced once it has been processed.
type TapeIndex struct {
	byTimestamp map[int64][]domain.Trade
}

func NewTapeIndex(trades []domain.Trade) *TapeIndex {
	idx := &TapeIndex{byTimestamp: make(map[int64][]domain.Trade)}
	for _, t := range trades {
		idx.byTimestamp[t.Timestamp] = append(idx.byTimestamp[t.Timestamp], t)
	}
	return idx
}

// At returns a copy of the working set for ts, in tape order.
func (x *TapeIndex) At(ts int64) []domain.Trade {
	return slices.Clone(x.byTimestamp[ts])
}

func (x *TapeIndex) Replace(ts int64, trades []domain.Trade) {
	if len(trades) == 0 {
		delete(x.byTimestamp, ts)
		return
	}
	x.byTimestamp[ts] = slices.Clone(trades)
}

// Timestamps returns every timestamp carrying at least one trade, ascending.
func (x *TapeIndex) Timestamps() []int64 {
	res := make([]int64, 0, len(x.byTimestamp))
	for ts := range x.byTimestamp {
		res = append(res, ts)
	}
	slices.Sort(res)
	return res
}
