package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBookSideOrdersBestFirst(t *testing.T) {
	bids := NewBookSide(Bid)
	bids.Set(d(9), 1)
	bids.Set(d(11), 2)
	bids.Set(d(10), 3)

	asks := NewBookSide(Ask)
	asks.Set(d(13), -1)
	asks.Set(d(12), -2)
	asks.Set(d(14), -3)

	var bidPrices, askPrices []string
	for _, l := range bids.Levels() {
		bidPrices = append(bidPrices, l.Price.String())
	}
	for _, l := range asks.Levels() {
		askPrices = append(askPrices, l.Price.String())
	}
	assert.Equal(t, []string{"11", "10", "9"}, bidPrices)
	assert.Equal(t, []string{"12", "13", "14"}, askPrices)
}

func TestBookSideSetReplacesSamePrice(t *testing.T) {
	s := NewBookSide(Bid)
	s.Set(d(10), 4)
	s.Set(d(10), 7)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, int64(7), s.Size(d(10)))
}

func TestBookSideConsume(t *testing.T) {
	asks := NewBookSide(Ask)
	asks.Set(d(10), -5)
	asks.Set(d(11), -2)

	asks.Consume(d(10), 3)
	assert.Equal(t, int64(2), asks.Size(d(10)))
	best, ok := asks.Best()
	require.True(t, ok)
	assert.Equal(t, int64(-2), best.Volume)

	asks.Consume(d(10), 2)
	assert.Equal(t, 1, asks.Len())
	assert.Equal(t, int64(0), asks.Size(d(10)))

	// consuming an absent price is a no-op
	asks.Consume(d(99), 1)
	assert.Equal(t, 1, asks.Len())
}

func TestOrderDepthCloneIsIndependent(t *testing.T) {
	depth := NewOrderDepth()
	depth.BuyOrders.Set(d(10), 5)
	c := depth.Clone()
	c.BuyOrders.Consume(d(10), 5)
	assert.Equal(t, 0, c.BuyOrders.Len())
	assert.Equal(t, int64(5), depth.BuyOrders.Size(d(10)))
}

func TestParty(t *testing.T) {
	assert.Equal(t, Strategy, ParseParty("SUBMISSION"))
	assert.Equal(t, Anonymous, ParseParty(""))
	assert.Equal(t, Anonymous, ParseParty("Remy"))
	assert.Equal(t, "SUBMISSION", Strategy.String())
	assert.True(t, Trade{Seller: Strategy}.Own())
	assert.False(t, Trade{}.Own())
}

func TestRunSummaryTakesLastRecordPerSymbol(t *testing.T) {
	r := &RunResult{
		ID: "run",
		PnL: []PnLRecord{
			{Timestamp: 0, Symbol: "A", Position: 1, Cash: d(-10), PnL: d(1)},
			{Timestamp: 0, Symbol: "B", Position: 0, Cash: d(0), PnL: d(0)},
			{Timestamp: 100, Symbol: "A", Position: 2, Cash: d(-21), PnL: d(3)},
			{Timestamp: 100, Symbol: "B", Position: -1, Cash: d(5), PnL: d(-1)},
		},
		Fills: []Trade{{Symbol: "A"}, {Symbol: "A"}, {Symbol: "B"}},
	}
	s := r.Summary()
	require.Len(t, s.Symbols, 2)
	assert.Equal(t, int64(2), s.Symbols[0].Position)
	assert.Equal(t, 2, s.Symbols[0].Fills)
	assert.True(t, s.Symbols[1].Cash.Equal(d(5)))
	assert.True(t, s.TotalPnL.Equal(d(2)))
	assert.Equal(t, 3, s.Fills)
}
