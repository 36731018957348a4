// Package strategy holds the built-in trading strategies that can be replayed.
package strategy

import (
	"fmt"
	"sort"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"github.com/shopspring/decimal"
)

const (
	NameFairValue = "fair_value"
	NameNoop      = "noop"
)

// Params configures the built-in strategies.
type Params struct {
	FairValues map[string]decimal.Decimal `yaml:"fair_values" json:"fair_values,omitempty"`
	Window     int                        `yaml:"window" json:"window,omitempty"`
	Edge       decimal.Decimal            `yaml:"edge" json:"edge,omitempty"`
}

// New returns the strategy registered under name.
func New(name string, params Params, limits domain.PositionLimits) (port.Strategy, error) {
	switch name {
	case NameFairValue, "":
		return NewFairValue(params, limits), nil
	case NameNoop:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Names lists the registered strategies.
func Names() []string {
	return []string{NameFairValue, NameNoop}
}

// Noop never trades.
type Noop struct{}

func (Noop) Run(state domain.TradingState) (domain.Decision, error) {
	return domain.Decision{TraderData: state.TraderData}, nil
}

func sortedSymbols(listings map[string]domain.Listing) []string {
	res := make([]string, 0, len(listings))
	for s := range listings {
		res = append(res, s)
	}
	sort.Strings(res)
	return res
}
