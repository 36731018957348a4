package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
)

type Cache struct {
	mu    sync.Mutex
	store map[string]domain.RunSummary
}

var _ port.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{store: make(map[string]domain.RunSummary)}
}

func (c *Cache) SetSummary(ctx context.Context, runID string, s *domain.RunSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[runID] = *s
	return nil
}

func (c *Cache) GetSummary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.store[runID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
