package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BacktestConfig struct {
	Listings     []domain.Listing
	Limits       domain.PositionLimits
	Strategy     port.Strategy
	StrategyName string
	Observations port.ObservationProvider
	Logger       *zap.SugaredLogger
	Recorder     Recorder
}

// Backtest replays book snapshots and the trade tape against a strategy.
type Backtest struct {
	listings     []domain.Listing
	listingMap   map[string]domain.Listing
	limits       domain.PositionLimits
	strategy     port.Strategy
	strategyName string
	observations port.ObservationProvider
	logger       *zap.SugaredLogger
	recorder     Recorder
}

func NewBacktest(cfg BacktestConfig) (*Backtest, error) {
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("%w: no strategy", ErrConfig)
	}
	if len(cfg.Listings) == 0 {
		return nil, fmt.Errorf("%w: no listings", ErrConfig)
	}
	listingMap := make(map[string]domain.Listing, len(cfg.Listings))
	for _, l := range cfg.Listings {
		if l.Symbol == "" || l.Product == "" {
			return nil, fmt.Errorf("%w: listing %+v needs symbol and product", ErrConfig, l)
		}
		if _, dup := listingMap[l.Symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate listing %s", ErrConfig, l.Symbol)
		}
		limit, ok := cfg.Limits.Limit(l.Symbol)
		if !ok || limit < 0 {
			return nil, fmt.Errorf("%w: no position limit for %s", ErrConfig, l.Symbol)
		}
		listingMap[l.Symbol] = l
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Backtest{
		listings:     slices.Clone(cfg.Listings),
		listingMap:   listingMap,
		limits:       cfg.Limits,
		strategy:     cfg.Strategy,
		strategyName: cfg.StrategyName,
		observations: cfg.Observations,
		logger:       logger,
		recorder:     recorder,
	}, nil
}

// Run replays every timestamp found in either source, ascending. On a strategy
// failure it returns the result recorded so far together with the error.
func (b *Backtest) Run(book []domain.BookRow, trades []domain.Trade) (*domain.RunResult, error) {
	res := &domain.RunResult{Strategy: b.strategyName, StartedAt: time.Now().UTC()}

	rows := make(map[int64][]domain.BookRow)
	for _, r := range book {
		rows[r.Timestamp] = append(rows[r.Timestamp], r)
	}
	tape := NewTapeIndex(trades)

	ledger := NewLedger(b.limits)
	matcher := NewMatcher(ledger, b.logger, b.recorder)

	var (
		traderData   string
		ownTrades    = make(map[string][]domain.Trade)
		marketTrades = make(map[string][]domain.Trade)
		lastMid      = make(map[string]decimal.Decimal)
	)
	for _, ts := range b.timestamps(rows, tape) {
		snap := BuildSnapshot(rows[ts], b.listings)

		state := domain.TradingState{
			TraderData:   traderData,
			Timestamp:    ts,
			Listings:     b.listingMap,
			OrderDepths:  domain.DeepCopy(snap.Depths),
			OwnTrades:    ownTrades,
			MarketTrades: marketTrades,
			Position:     ledger.Positions(),
		}
		if b.observations != nil {
			state.Observations = b.observations.Observe(ts)
		}

		decision, err := b.strategy.Run(state)
		if err != nil {
			res.FinishedAt = time.Now().UTC()
			return res, fmt.Errorf("%w: timestamp %d: %v", ErrStrategy, ts, err)
		}
		orders, err := b.route(decision.Orders)
		if err != nil {
			res.FinishedAt = time.Now().UTC()
			return res, fmt.Errorf("timestamp %d: %w", ts, err)
		}
		traderData = decision.TraderData
		if decision.Conversions != 0 {
			res.Conversions = append(res.Conversions, domain.ConversionRecord{Timestamp: ts, Conversions: decision.Conversions})
		}

		tick := &Tick{Timestamp: ts, Depths: snap.Depths, Mids: snap.Mids, Tape: tape.At(ts)}
		res.MarketTradesPre = append(res.MarketTradesPre, tick.Tape...)

		var fills []domain.Trade
		for _, o := range orders {
			res.Orders = append(res.Orders, domain.OrderRecord{Timestamp: ts, Order: o})
			fills = append(fills, matcher.Execute(tick, o)...)
		}
		Reconcile(tick)
		tape.Replace(ts, tick.Tape)

		res.Fills = append(res.Fills, fills...)
		res.MarketTradesPost = append(res.MarketTradesPost, tick.Tape...)

		for _, l := range b.listings {
			if mid, ok := snap.Mids[l.Symbol]; ok {
				lastMid[l.Symbol] = mid
			}
			mid := lastMid[l.Symbol]
			res.PnL = append(res.PnL, domain.PnLRecord{
				Timestamp: ts,
				Symbol:    l.Symbol,
				MidPrice:  mid,
				Position:  ledger.Position(l.Symbol),
				Cash:      ledger.Cash(l.Symbol),
				PnL:       ledger.MarkToMid(l.Symbol, mid),
			})
		}

		ownTrades = bySymbol(fills)
		marketTrades = bySymbol(tick.Tape)
		res.Timestamps++
		b.recorder.TickProcessed()
	}

	res.FinishedAt = time.Now().UTC()
	b.logger.Infow("backtest finished",
		"strategy", b.strategyName,
		"timestamps", res.Timestamps,
		"fills", len(res.Fills),
	)
	return res, nil
}

// route flattens strategy orders in listing order, keeping the strategy's
// order within each symbol. Orders for unknown symbols reject the whole batch.
func (b *Backtest) route(bySym map[string][]domain.Order) ([]domain.Order, error) {
	for sym, orders := range bySym {
		if _, ok := b.listingMap[sym]; !ok {
			return nil, fmt.Errorf("%w: unknown symbol %q", ErrMalformedOrder, sym)
		}
		for _, o := range orders {
			if o.Symbol != sym {
				return nil, fmt.Errorf("%w: order %s listed under %q", ErrMalformedOrder, o, sym)
			}
		}
	}
	var res []domain.Order
	for _, l := range b.listings {
		res = append(res, bySym[l.Symbol]...)
	}
	return res, nil
}

func (b *Backtest) timestamps(rows map[int64][]domain.BookRow, tape *TapeIndex) []int64 {
	seen := make(map[int64]struct{}, len(rows))
	res := make([]int64, 0, len(rows))
	for ts := range rows {
		seen[ts] = struct{}{}
		res = append(res, ts)
	}
	for _, ts := range tape.Timestamps() {
		if _, ok := seen[ts]; !ok {
			res = append(res, ts)
		}
	}
	slices.Sort(res)
	return res
}

func bySymbol(trades []domain.Trade) map[string][]domain.Trade {
	res := make(map[string][]domain.Trade)
	for _, t := range trades {
		res[t.Symbol] = append(res[t.Symbol], t)
	}
	return res
}
