package port

import (
	"context"

	"github.com/olyamironova/exchange-backtest/internal/domain"
)

type Cache interface {
	SetSummary(ctx context.Context, runID string, s *domain.RunSummary) error
	GetSummary(ctx context.Context, runID string) (*domain.RunSummary, error)
}
