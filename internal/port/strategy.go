package port

import "github.com/olyamironova/exchange-backtest/internal/domain"

// Strategy turns a market snapshot into orders. TraderData of the returned
// decision is handed back unmodified on the next call.
type Strategy interface {
	Run(state domain.TradingState) (domain.Decision, error)
}

// ObservationProvider supplies external observations per timestamp.
type ObservationProvider interface {
	Observe(timestamp int64) domain.Observation
}
