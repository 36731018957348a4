package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Party identifies a trade counterparty.
type Party uint8

const (
	Anonymous Party = iota
	Strategy
)

// submission is the tape identity of the simulated strategy.
const submission = "SUBMISSION"

func ParseParty(s string) Party {
	if s == submission {
		return Strategy
	}
	return Anonymous
}

func (p Party) String() string {
	if p == Strategy {
		return submission
	}
	return ""
}

func (p Party) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Party) UnmarshalText(b []byte) error {
	*p = ParseParty(string(b))
	return nil
}

// Trade is a realized trade, either from the historical tape or a simulated fill.
type Trade struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Buyer     Party           `json:"buyer"`
	Seller    Party           `json:"seller"`
	Timestamp int64           `json:"timestamp"`
}

// Own reports whether the strategy took part in the trade.
func (t Trade) Own() bool {
	return t.Buyer == Strategy || t.Seller == Strategy
}

func (t Trade) String() string {
	return fmt.Sprintf("(%s, %s << %s, %s, %d, %d)", t.Symbol, t.Buyer, t.Seller, t.Price.String(), t.Quantity, t.Timestamp)
}

// TradeStage selects the market trade sequence recorded before or after simulation.
type TradeStage string

const (
	StagePre  TradeStage = "pre"
	StagePost TradeStage = "post"
)
