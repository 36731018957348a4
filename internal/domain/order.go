package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Order is a strategy intent for one timestamp. Positive quantity buys, negative sells.
type Order struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

func (o Order) IsBuy() bool { return o.Quantity > 0 }

func (o Order) String() string {
	return fmt.Sprintf("(%s, %s, %d)", o.Symbol, o.Price.String(), o.Quantity)
}

// OrderRecord is an order as issued at a given timestamp.
type OrderRecord struct {
	Timestamp int64 `json:"timestamp"`
	Order
}
