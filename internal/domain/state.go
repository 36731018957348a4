package domain

// Observation carries external, opaque market observations.
type Observation struct {
	PlainValues map[string]int64 `json:"plain_values,omitempty"`
}

// TradingState is what a strategy sees at one timestamp.
type TradingState struct {
	TraderData   string
	Timestamp    int64
	Listings     map[string]Listing
	OrderDepths  map[string]*OrderDepth
	OwnTrades    map[string][]Trade
	MarketTrades map[string][]Trade
	Position     map[string]int64
	Observations Observation
}

// Decision is what a strategy returns for one timestamp.
type Decision struct {
	Orders      map[string][]Order
	Conversions int
	TraderData  string
}
