package core

import (
	"testing"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listings = []domain.Listing{
	{Symbol: "AMETHYSTS", Product: "AMETHYSTS", Denomination: "SEASHELLS"},
	{Symbol: "STARFRUIT", Product: "STARFRUIT", Denomination: "SEASHELLS"},
}

func TestBuildSnapshot(t *testing.T) {
	row := domain.BookRow{
		Timestamp: 0,
		Product:   "AMETHYSTS",
		Bids:      [domain.MaxLevels]domain.Quote{q(9998, 1), q(9996, 2), {}},
		Asks:      [domain.MaxLevels]domain.Quote{q(10002, 3), {Price: nd(10004)}, q(10005, 4)},
		MidPrice:  nd(10000),
	}

	snap := BuildSnapshot([]domain.BookRow{row}, listings)

	d := snap.Depths["AMETHYSTS"]
	require.NotNil(t, d)
	bids := d.BuyOrders.Levels()
	require.Len(t, bids, 2)
	assert.Equal(t, domain.PriceLevel{Price: px(9998), Volume: 1}, bids[0])
	assert.Equal(t, domain.PriceLevel{Price: px(9996), Volume: 2}, bids[1])

	asks := d.SellOrders.Levels()
	require.Len(t, asks, 2, "a level without size is absent")
	assert.Equal(t, int64(-3), asks[0].Volume)
	assert.True(t, asks[1].Price.Equal(px(10005)))
	assert.True(t, snap.Mids["AMETHYSTS"].Equal(px(10000)))
}

func TestBuildSnapshotDropsZeroSizeQuotes(t *testing.T) {
	row := domain.BookRow{
		Product:  "AMETHYSTS",
		Bids:     [domain.MaxLevels]domain.Quote{q(9998, 0), q(9996, 2), {}},
		Asks:     [domain.MaxLevels]domain.Quote{q(10002, 0), {}, {}},
		MidPrice: nd(10000),
	}

	snap := BuildSnapshot([]domain.BookRow{row}, listings)

	d := snap.Depths["AMETHYSTS"]
	require.Equal(t, 1, d.BuyOrders.Len())
	best, ok := d.BuyOrders.Best()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(px(9996)))
	assert.Zero(t, d.SellOrders.Len())
}

func TestBuildSnapshotMissingListingIsEmpty(t *testing.T) {
	snap := BuildSnapshot([]domain.BookRow{{Product: "AMETHYSTS", MidPrice: nd(1)}}, listings)

	sf, ok := snap.Depths["STARFRUIT"]
	require.True(t, ok)
	assert.Zero(t, sf.BuyOrders.Len())
	assert.Zero(t, sf.SellOrders.Len())
	_, hasMid := snap.Mids["STARFRUIT"]
	assert.False(t, hasMid)
}

func TestBuildSnapshotIgnoresUnlistedProducts(t *testing.T) {
	snap := BuildSnapshot([]domain.BookRow{{Product: "ORCHIDS", MidPrice: nd(1)}}, listings)
	_, ok := snap.Depths["ORCHIDS"]
	assert.False(t, ok)
}

func TestBuildSnapshotMissingPriceIsNotZero(t *testing.T) {
	row := domain.BookRow{
		Product: "AMETHYSTS",
		Bids:    [domain.MaxLevels]domain.Quote{{Price: decimal.NullDecimal{}, Volume: 5, HasVolume: true}},
	}
	snap := BuildSnapshot([]domain.BookRow{row}, listings)
	assert.Zero(t, snap.Depths["AMETHYSTS"].BuyOrders.Len())
}
