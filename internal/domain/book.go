package domain

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxLevels is the number of price levels carried per book side.
const MaxLevels = 3

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// Quote is one raw price/size pair of a book snapshot row. Either field may be missing.
type Quote struct {
	Price     decimal.NullDecimal
	Volume    int64
	HasVolume bool
}

func (q Quote) Present() bool {
	return q.Price.Valid && q.HasVolume
}

// BookRow is the raw per-timestamp, per-product snapshot row.
type BookRow struct {
	Day           int64
	Timestamp     int64
	Product       string
	Bids          [MaxLevels]Quote
	Asks          [MaxLevels]Quote
	MidPrice      decimal.NullDecimal
	ProfitAndLoss decimal.NullDecimal
}

// PriceLevel is an aggregated level. Ask volumes are stored negative.
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Volume int64           `json:"volume"`
}

// Size returns the unsigned quantity available at the level.
func (l PriceLevel) Size() int64 {
	if l.Volume < 0 {
		return -l.Volume
	}
	return l.Volume
}

// BookSide holds levels ordered best price first: highest bid, lowest ask.
type BookSide struct {
	side   Side
	levels []PriceLevel
}

func NewBookSide(side Side) *BookSide {
	return &BookSide{side: side}
}

func (s *BookSide) Side() Side { return s.side }

func (s *BookSide) better(a, b decimal.Decimal) bool {
	if s.side == Bid {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

// Set stores the signed volume at price, replacing an existing level at the same price.
func (s *BookSide) Set(price decimal.Decimal, volume int64) {
	i := sort.Search(len(s.levels), func(i int) bool {
		return !s.better(s.levels[i].Price, price)
	})
	if i < len(s.levels) && s.levels[i].Price.Equal(price) {
		s.levels[i].Volume = volume
		return
	}
	s.levels = slices.Insert(s.levels, i, PriceLevel{Price: price, Volume: volume})
}

// Size returns the unsigned quantity resting at price, zero when absent.
func (s *BookSide) Size(price decimal.Decimal) int64 {
	for _, l := range s.levels {
		if l.Price.Equal(price) {
			return l.Size()
		}
	}
	return 0
}

// Consume removes qty from the level at price and drops the level once empty.
func (s *BookSide) Consume(price decimal.Decimal, qty int64) {
	for i := range s.levels {
		if !s.levels[i].Price.Equal(price) {
			continue
		}
		if s.levels[i].Volume < 0 {
			s.levels[i].Volume += qty
		} else {
			s.levels[i].Volume -= qty
		}
		if s.levels[i].Volume == 0 {
			s.levels = slices.Delete(s.levels, i, i+1)
		}
		return
	}
}

// Levels returns a copy of the levels in priority order.
func (s *BookSide) Levels() []PriceLevel {
	return slices.Clone(s.levels)
}

func (s *BookSide) Best() (PriceLevel, bool) {
	if len(s.levels) == 0 {
		return PriceLevel{}, false
	}
	return s.levels[0], true
}

func (s *BookSide) Len() int { return len(s.levels) }

func (s *BookSide) Clone() *BookSide {
	return &BookSide{side: s.side, levels: slices.Clone(s.levels)}
}

// OrderDepth is the per-symbol book rebuilt every timestamp.
type OrderDepth struct {
	BuyOrders  *BookSide
	SellOrders *BookSide
}

func NewOrderDepth() *OrderDepth {
	return &OrderDepth{
		BuyOrders:  NewBookSide(Bid),
		SellOrders: NewBookSide(Ask),
	}
}

func (d *OrderDepth) Clone() *OrderDepth {
	return &OrderDepth{
		BuyOrders:  d.BuyOrders.Clone(),
		SellOrders: d.SellOrders.Clone(),
	}
}

// DeepCopy copies every depth of a snapshot map.
func DeepCopy(depths map[string]*OrderDepth) map[string]*OrderDepth {
	res := make(map[string]*OrderDepth, len(depths))
	for s, d := range depths {
		res[s] = d.Clone()
	}
	return res
}
