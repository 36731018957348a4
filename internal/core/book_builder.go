package core

import (
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
)

// Snapshot is the reconstructed market for one timestamp.
type Snapshot struct {
	Depths map[string]*domain.OrderDepth
	Mids   map[string]decimal.Decimal
}

// BuildSnapshot turns the rows of one timestamp into a depth per listing.
// A listing without a row gets an empty depth and no mid.
func BuildSnapshot(rows []domain.BookRow, listings []domain.Listing) Snapshot {
	byProduct := make(map[string]domain.BookRow, len(rows))
	for _, r := range rows {
		byProduct[r.Product] = r
	}

	snap := Snapshot{
		Depths: make(map[string]*domain.OrderDepth, len(listings)),
		Mids:   make(map[string]decimal.Decimal, len(listings)),
	}
	for _, l := range listings {
		depth := domain.NewOrderDepth()
		snap.Depths[l.Symbol] = depth

		row, ok := byProduct[l.Product]
		if !ok {
			continue
		}
		for _, q := range row.Bids {
			if q.Present() && q.Volume != 0 {
				depth.BuyOrders.Set(q.Price.Decimal, abs(q.Volume))
			}
		}
		for _, q := range row.Asks {
			if q.Present() && q.Volume != 0 {
				depth.SellOrders.Set(q.Price.Decimal, -abs(q.Volume))
			}
		}
		if row.MidPrice.Valid {
			snap.Mids[l.Symbol] = row.MidPrice.Decimal
		}
	}
	return snap
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
