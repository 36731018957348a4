package core

import "github.com/olyamironova/exchange-backtest/internal/domain"

type levelKey struct {
	symbol string
	side   domain.Side
	price  string
}

// Reconcile caps every remaining tape entry of the tick to the depth still
// resting at its price after matching. Entries at or above mid are checked
// against asks, the rest against bids; entries without depth are dropped.
// Entries sharing a level draw down the same remaining size.
func Reconcile(t *Tick) {
	avail := make(map[levelKey]int64)
	kept := make([]domain.Trade, 0, len(t.Tape))
	for _, tr := range t.Tape {
		mid, ok := t.Mids[tr.Symbol]
		depth := t.Depths[tr.Symbol]
		if !ok || depth == nil {
			continue
		}
		book := depth.BuyOrders
		if tr.Price.GreaterThanOrEqual(mid) {
			book = depth.SellOrders
		}

		key := levelKey{symbol: tr.Symbol, side: book.Side(), price: tr.Price.String()}
		left, seen := avail[key]
		if !seen {
			left = book.Size(tr.Price)
		}
		qty := max(min(tr.Quantity, left), 0)
		avail[key] = left - qty
		if qty <= 0 {
			continue
		}
		tr.Quantity = qty
		kept = append(kept, tr)
	}
	t.Tape = kept
}
