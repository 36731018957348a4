package core

import (
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tick is the working state of the timestamp being replayed. Depths and Tape
// are consumed by the Matcher and the reconciler, then discarded.
type Tick struct {
	Timestamp int64
	Depths    map[string]*domain.OrderDepth
	Mids      map[string]decimal.Decimal
	Tape      []domain.Trade
}

// Matcher executes strategy orders against book depth and the trade tape.
type Matcher struct {
	ledger   *Ledger
	logger   *zap.SugaredLogger
	recorder Recorder
}

func NewMatcher(ledger *Ledger, logger *zap.SugaredLogger, recorder Recorder) *Matcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Matcher{ledger: ledger, logger: logger, recorder: recorder}
}

// Execute matches one order and returns the strategy's fills in execution order.
// Unfilled quantity expires with the timestamp.
func (m *Matcher) Execute(t *Tick, o domain.Order) []domain.Trade {
	if o.Quantity == 0 {
		return nil
	}
	dir := int64(1)
	if !o.IsBuy() {
		dir = -1
	}
	remaining := o.Quantity * dir

	depth, ok := t.Depths[o.Symbol]
	if !ok {
		depth = domain.NewOrderDepth()
		t.Depths[o.Symbol] = depth
	}
	book := depth.SellOrders
	if dir < 0 {
		book = depth.BuyOrders
	}

	var fills []domain.Trade
	for _, level := range book.Levels() {
		if remaining == 0 {
			break
		}
		if !crosses(o, dir, level.Price) {
			fills = append(fills, m.matchTape(t, o, dir, &remaining)...)
			break
		}
		qty := min(remaining, level.Size())
		if qty <= 0 {
			continue
		}
		if !m.accept(o.Symbol, level.Price, dir*qty) {
			continue
		}
		book.Consume(level.Price, qty)
		remaining -= qty
		fills = append(fills, ownTrade(t.Timestamp, o.Symbol, level.Price, qty, dir))
		m.recorder.Fill(o.Symbol, true)
	}
	return fills
}

// matchTape fills a resting order against the realized trades of the tick.
// Filled tape quantity moves to the strategy; leftovers stay on the tape as
// anonymous trades at the same price.
func (m *Matcher) matchTape(t *Tick, o domain.Order, dir int64, remaining *int64) []domain.Trade {
	var fills []domain.Trade
	rewritten := make([]domain.Trade, 0, len(t.Tape))
	for _, tr := range t.Tape {
		if *remaining == 0 || tr.Symbol != o.Symbol || tr.Own() || !crosses(o, dir, tr.Price) {
			rewritten = append(rewritten, tr)
			continue
		}
		qty := min(*remaining, tr.Quantity)
		if qty <= 0 {
			rewritten = append(rewritten, tr)
			continue
		}
		if !m.accept(o.Symbol, tr.Price, dir*qty) {
			rewritten = append(rewritten, tr)
			continue
		}
		*remaining -= qty
		fills = append(fills, ownTrade(t.Timestamp, o.Symbol, tr.Price, qty, dir))
		m.recorder.Fill(o.Symbol, false)

		if left := tr.Quantity - qty; left > 0 {
			rewritten = append(rewritten, domain.Trade{
				Symbol:    tr.Symbol,
				Price:     tr.Price,
				Quantity:  left,
				Timestamp: tr.Timestamp,
			})
		}
	}
	t.Tape = rewritten
	return fills
}

// accept limit-checks a signed fill and books it on success.
func (m *Matcher) accept(symbol string, price decimal.Decimal, signed int64) bool {
	position := m.ledger.Position(symbol)
	if !m.ledger.WithinLimit(symbol, position+signed) {
		m.logger.Debugw("fill skipped: position limit",
			"symbol", symbol,
			"price", price.String(),
			"quantity", signed,
			"position", position,
		)
		m.recorder.LimitRejected(symbol)
		return false
	}
	m.ledger.ApplyFill(symbol, price, signed)
	return true
}

// crosses reports whether a buy (dir > 0) or sell order trades at price.
func crosses(o domain.Order, dir int64, price decimal.Decimal) bool {
	if dir > 0 {
		return price.LessThanOrEqual(o.Price)
	}
	return price.GreaterThanOrEqual(o.Price)
}

func ownTrade(ts int64, symbol string, price decimal.Decimal, qty, dir int64) domain.Trade {
	t := domain.Trade{
		Symbol:    symbol,
		Price:     price,
		Quantity:  qty,
		Timestamp: ts,
	}
	if dir > 0 {
		t.Buyer = domain.Strategy
	} else {
		t.Seller = domain.Strategy
	}
	return t
}
