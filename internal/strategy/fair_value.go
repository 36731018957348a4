package strategy

import (
	"encoding/json"
	"fmt"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
)

const defaultWindow = 10

// FairValue takes liquidity priced through its fair value and quotes the
// remaining capacity one edge away from it. Fair value is either configured
// or the rolling mean of recent mids, carried between ticks in TraderData.
type FairValue struct {
	fixed  map[string]decimal.Decimal
	window int
	edge   decimal.Decimal
	limits domain.PositionLimits
}

type fairValueData struct {
	Mids map[string][]decimal.Decimal `json:"mids"`
}

func NewFairValue(p Params, limits domain.PositionLimits) *FairValue {
	s := &FairValue{fixed: p.FairValues, window: p.Window, edge: p.Edge, limits: limits}
	if s.window <= 0 {
		s.window = defaultWindow
	}
	if !s.edge.IsPositive() {
		s.edge = decimal.NewFromInt(1)
	}
	return s
}

func (s *FairValue) Run(state domain.TradingState) (domain.Decision, error) {
	data := fairValueData{Mids: make(map[string][]decimal.Decimal)}
	if state.TraderData != "" {
		if err := json.Unmarshal([]byte(state.TraderData), &data); err != nil {
			return domain.Decision{}, fmt.Errorf("decode trader data: %w", err)
		}
		if data.Mids == nil {
			data.Mids = make(map[string][]decimal.Decimal)
		}
	}

	orders := make(map[string][]domain.Order)
	for _, sym := range sortedSymbols(state.Listings) {
		depth, ok := state.OrderDepths[sym]
		if !ok {
			continue
		}
		fair, ok := s.fairValue(sym, depth, &data)
		if !ok {
			continue
		}
		if o := s.quote(sym, fair, depth, state.Position[sym]); len(o) > 0 {
			orders[sym] = o
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		return domain.Decision{}, err
	}
	return domain.Decision{Orders: orders, TraderData: string(b)}, nil
}

func (s *FairValue) fairValue(sym string, depth *domain.OrderDepth, data *fairValueData) (decimal.Decimal, bool) {
	if v, ok := s.fixed[sym]; ok {
		return v, true
	}
	bid, okb := depth.BuyOrders.Best()
	ask, oka := depth.SellOrders.Best()
	if okb && oka {
		mid := bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2))
		mids := append(data.Mids[sym], mid)
		if len(mids) > s.window {
			mids = mids[len(mids)-s.window:]
		}
		data.Mids[sym] = mids
	}
	mids := data.Mids[sym]
	if len(mids) == 0 {
		return decimal.Decimal{}, false
	}
	return decimal.Avg(mids[0], mids[1:]...), true
}

func (s *FairValue) quote(sym string, fair decimal.Decimal, depth *domain.OrderDepth, position int64) []domain.Order {
	limit := s.limits[sym]
	buyCap, sellCap := limit-position, limit+position

	var res []domain.Order
	for _, l := range depth.SellOrders.Levels() {
		if buyCap <= 0 || !l.Price.LessThan(fair) {
			break
		}
		q := min(l.Size(), buyCap)
		res = append(res, domain.Order{Symbol: sym, Price: l.Price, Quantity: q})
		buyCap -= q
	}
	for _, l := range depth.BuyOrders.Levels() {
		if sellCap <= 0 || !l.Price.GreaterThan(fair) {
			break
		}
		q := min(l.Size(), sellCap)
		res = append(res, domain.Order{Symbol: sym, Price: l.Price, Quantity: -q})
		sellCap -= q
	}
	if buyCap > 0 {
		res = append(res, domain.Order{Symbol: sym, Price: fair.Sub(s.edge).Floor(), Quantity: buyCap})
	}
	if sellCap > 0 {
		res = append(res, domain.Order{Symbol: sym, Price: fair.Add(s.edge).Ceil(), Quantity: -sellCap})
	}
	return res
}
