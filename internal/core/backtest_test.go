package core

import (
	"errors"
	"strconv"
	"testing"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = domain.PositionLimits{"AMETHYSTS": 20, "STARFRUIT": 20}

func bookRow(ts int64, product string, bid, ask, mid int64) domain.BookRow {
	return domain.BookRow{
		Timestamp: ts,
		Product:   product,
		Bids:      [domain.MaxLevels]domain.Quote{q(bid, 5)},
		Asks:      [domain.MaxLevels]domain.Quote{q(ask, 5)},
		MidPrice:  nd(mid),
	}
}

func newBacktest(t *testing.T, s strategyFunc) *Backtest {
	t.Helper()
	bt, err := NewBacktest(BacktestConfig{Listings: listings, Limits: limits, Strategy: s, StrategyName: "test"})
	require.NoError(t, err)
	return bt
}

func TestNewBacktestConfigErrors(t *testing.T) {
	noop := strategyFunc(func(domain.TradingState) (domain.Decision, error) { return domain.Decision{}, nil })

	_, err := NewBacktest(BacktestConfig{Listings: listings, Limits: domain.PositionLimits{"AMETHYSTS": 20}, Strategy: noop})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewBacktest(BacktestConfig{Listings: []domain.Listing{{Symbol: "X"}}, Limits: domain.PositionLimits{"X": 1}, Strategy: noop})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewBacktest(BacktestConfig{Listings: listings, Limits: limits})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRunThreadsTraderDataAndLagsOwnTrades(t *testing.T) {
	var seen []domain.TradingState
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		seen = append(seen, s)
		d := domain.Decision{TraderData: strconv.FormatInt(s.Timestamp, 10)}
		if s.Timestamp == 0 {
			d.Orders = map[string][]domain.Order{
				"AMETHYSTS": {{Symbol: "AMETHYSTS", Price: px(10), Quantity: 3}},
			}
		}
		return d, nil
	})
	book := []domain.BookRow{
		bookRow(0, "AMETHYSTS", 8, 10, 9),
		bookRow(100, "AMETHYSTS", 8, 10, 9),
		bookRow(200, "AMETHYSTS", 8, 10, 9),
	}

	res, err := bt.Run(book, nil)
	require.NoError(t, err)
	require.Len(t, seen, 3)

	assert.Equal(t, "", seen[0].TraderData)
	assert.Equal(t, "0", seen[1].TraderData)
	assert.Equal(t, "100", seen[2].TraderData)

	assert.Empty(t, seen[0].OwnTrades)
	require.Len(t, seen[1].OwnTrades["AMETHYSTS"], 1)
	assert.Equal(t, int64(3), seen[1].OwnTrades["AMETHYSTS"][0].Quantity)
	assert.Empty(t, seen[2].OwnTrades)
	assert.Equal(t, int64(3), seen[1].Position["AMETHYSTS"])

	assert.Len(t, res.Fills, 1)
	assert.Len(t, res.Orders, 1)
	assert.Equal(t, 3, res.Timestamps)
	assert.Equal(t, "test", res.Strategy)
}

func TestRunUnionOfTimestamps(t *testing.T) {
	var stamps []int64
	var emptyAt50 bool
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		stamps = append(stamps, s.Timestamp)
		if s.Timestamp == 50 {
			emptyAt50 = s.OrderDepths["AMETHYSTS"].SellOrders.Len() == 0
		}
		return domain.Decision{}, nil
	})
	book := []domain.BookRow{bookRow(100, "AMETHYSTS", 8, 10, 9), bookRow(0, "AMETHYSTS", 8, 10, 9)}
	trades := []domain.Trade{{Symbol: "AMETHYSTS", Price: px(9), Quantity: 1, Timestamp: 50}}

	res, err := bt.Run(book, trades)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 50, 100}, stamps)
	assert.True(t, emptyAt50)
	assert.Len(t, res.MarketTradesPre, 1)
	assert.Empty(t, res.MarketTradesPost, "no depth at 50, so the tape entry is dropped")
}

func TestRunPnLMarksToMidAndCarriesMidForward(t *testing.T) {
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		if s.Timestamp != 0 {
			return domain.Decision{}, nil
		}
		return domain.Decision{Orders: map[string][]domain.Order{
			"AMETHYSTS": {{Symbol: "AMETHYSTS", Price: px(11), Quantity: 3}},
		}}, nil
	})
	book := []domain.BookRow{
		bookRow(0, "AMETHYSTS", 8, 10, 12),
		bookRow(100, "STARFRUIT", 4, 6, 5),
	}

	res, err := bt.Run(book, nil)
	require.NoError(t, err)
	require.Len(t, res.PnL, 4)

	first := res.PnL[0]
	assert.Equal(t, "AMETHYSTS", first.Symbol)
	assert.Equal(t, int64(3), first.Position)
	assert.True(t, first.Cash.Equal(px(-30)))
	assert.True(t, first.PnL.Equal(px(6)))

	gap := res.PnL[2]
	assert.Equal(t, int64(100), gap.Timestamp)
	assert.Equal(t, "AMETHYSTS", gap.Symbol)
	assert.True(t, gap.MidPrice.Equal(px(12)), "last known mid is reused")
	assert.True(t, gap.PnL.Equal(gap.Cash.Add(gap.MidPrice.Mul(px(gap.Position)))))

	s := res.Summary()
	assert.True(t, s.TotalPnL.Equal(px(6)))
}

func TestRunStrategyErrorKeepsPartialResult(t *testing.T) {
	boom := errors.New("boom")
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		if s.Timestamp == 100 {
			return domain.Decision{}, boom
		}
		return domain.Decision{}, nil
	})
	book := []domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9), bookRow(100, "AMETHYSTS", 8, 10, 9)}

	res, err := bt.Run(book, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStrategy)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Timestamps)
	assert.Len(t, res.PnL, 2)
}

func TestRunRejectsMalformedOrders(t *testing.T) {
	cases := map[string]map[string][]domain.Order{
		"unknown symbol": {"ORCHIDS": {{Symbol: "ORCHIDS", Price: px(1), Quantity: 1}}},
		"wrong key":      {"AMETHYSTS": {{Symbol: "STARFRUIT", Price: px(1), Quantity: 1}}},
	}
	for name, orders := range cases {
		t.Run(name, func(t *testing.T) {
			bt := newBacktest(t, func(domain.TradingState) (domain.Decision, error) {
				return domain.Decision{Orders: orders}, nil
			})
			_, err := bt.Run([]domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9)}, nil)
			assert.ErrorIs(t, err, ErrMalformedOrder)
		})
	}
}

func TestRunProcessesOrdersInListingOrder(t *testing.T) {
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		return domain.Decision{Orders: map[string][]domain.Order{
			"STARFRUIT": {{Symbol: "STARFRUIT", Price: px(6), Quantity: 1}},
			"AMETHYSTS": {
				{Symbol: "AMETHYSTS", Price: px(10), Quantity: 1},
				{Symbol: "AMETHYSTS", Price: px(8), Quantity: -1},
			},
		}}, nil
	})
	book := []domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9), bookRow(0, "STARFRUIT", 4, 6, 5)}

	res, err := bt.Run(book, nil)
	require.NoError(t, err)
	require.Len(t, res.Orders, 3)
	assert.Equal(t, "AMETHYSTS", res.Orders[0].Symbol)
	assert.Equal(t, int64(-1), res.Orders[1].Quantity)
	assert.Equal(t, "STARFRUIT", res.Orders[2].Symbol)
}

func TestRunStrategyCannotMutateMatchingDepth(t *testing.T) {
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		s.OrderDepths["AMETHYSTS"].SellOrders.Consume(px(10), 5)
		return domain.Decision{Orders: map[string][]domain.Order{
			"AMETHYSTS": {{Symbol: "AMETHYSTS", Price: px(10), Quantity: 2}},
		}}, nil
	})
	res, err := bt.Run([]domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9)}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Fills, 1)
}

func TestRunRecordsConversionsAndMarketTrades(t *testing.T) {
	var marketAt100 []domain.Trade
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		if s.Timestamp == 100 {
			marketAt100 = s.MarketTrades["AMETHYSTS"]
		}
		return domain.Decision{Conversions: 2}, nil
	})
	book := []domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9), bookRow(100, "AMETHYSTS", 8, 10, 9)}
	trades := []domain.Trade{{Symbol: "AMETHYSTS", Price: px(10), Quantity: 7, Timestamp: 0}}

	res, err := bt.Run(book, trades)
	require.NoError(t, err)
	require.Len(t, marketAt100, 1)
	assert.Equal(t, int64(5), marketAt100[0].Quantity, "capped to the 5 resting at the ask")
	assert.Len(t, res.Conversions, 2)
}

type recordingObservations struct {
	seen []int64
}

func (o *recordingObservations) Observe(ts int64) domain.Observation {
	o.seen = append(o.seen, ts)
	return domain.Observation{PlainValues: map[string]int64{"SUNLIGHT": ts * 2}}
}

func TestRunPassesObservationsPerTimestamp(t *testing.T) {
	obs := &recordingObservations{}
	var got []int64
	bt, err := NewBacktest(BacktestConfig{
		Listings: listings,
		Limits:   limits,
		Strategy: strategyFunc(func(s domain.TradingState) (domain.Decision, error) {
			got = append(got, s.Observations.PlainValues["SUNLIGHT"])
			return domain.Decision{}, nil
		}),
		Observations: obs,
	})
	require.NoError(t, err)

	book := []domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9), bookRow(100, "AMETHYSTS", 8, 10, 9)}
	trades := []domain.Trade{{Symbol: "AMETHYSTS", Price: px(9), Quantity: 1, Timestamp: 200}}

	_, err = bt.Run(book, trades)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 100, 200}, obs.seen)
	assert.Equal(t, []int64{0, 200, 400}, got)
}

func TestRunWithoutObservationsLeavesThemEmpty(t *testing.T) {
	bt := newBacktest(t, func(s domain.TradingState) (domain.Decision, error) {
		assert.Nil(t, s.Observations.PlainValues)
		return domain.Decision{}, nil
	})
	_, err := bt.Run([]domain.BookRow{bookRow(0, "AMETHYSTS", 8, 10, 9)}, nil)
	require.NoError(t, err)
}
