package domain

// Listing is static reference data for a tradable symbol.
type Listing struct {
	Symbol       string `json:"symbol" yaml:"symbol"`
	Product      string `json:"product" yaml:"product"`
	Denomination string `json:"denomination" yaml:"denomination"`
}

// PositionLimits maps a symbol to the maximum absolute position allowed.
type PositionLimits map[string]int64

func (l PositionLimits) Limit(symbol string) (int64, bool) {
	v, ok := l[symbol]
	return v, ok
}
