package in_memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

type runData struct {
	summary domain.RunSummary
	orders  []domain.OrderRecord
	fills   []domain.Trade
	pre     []domain.Trade
	post    []domain.Trade
	pnl     []domain.PnLRecord
}

type MemoryRepo struct {
	mu   sync.Mutex
	runs map[string]*runData
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{runs: make(map[string]*runData)}
}

func (r *MemoryRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	return &memTx{repo: r, staged: make(map[string]*runData)}, nil
}

func (r *MemoryRepo) get(runID string) (*runData, error) {
	run, ok := r.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, port.ErrNotFound)
	}
	return run, nil
}

func (r *MemoryRepo) LoadSummary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.get(runID)
	if err != nil {
		return nil, err
	}
	s := run.summary
	return &s, nil
}

func (r *MemoryRepo) ListRuns(ctx context.Context) ([]domain.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]domain.RunSummary, 0, len(r.runs))
	for _, run := range r.runs {
		res = append(res, run.summary)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].StartedAt.After(res[j].StartedAt)
	})
	return res, nil
}

func (r *MemoryRepo) LoadOrders(ctx context.Context, runID string) ([]domain.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.get(runID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(run.orders), nil
}

func (r *MemoryRepo) LoadFills(ctx context.Context, runID string) ([]domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.get(runID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(run.fills), nil
}

func (r *MemoryRepo) LoadMarketTrades(ctx context.Context, runID string, stage domain.TradeStage) ([]domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.get(runID)
	if err != nil {
		return nil, err
	}
	if stage == domain.StagePre {
		return slices.Clone(run.pre), nil
	}
	return slices.Clone(run.post), nil
}

func (r *MemoryRepo) LoadPnL(ctx context.Context, runID, symbol string) ([]domain.PnLRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.get(runID)
	if err != nil {
		return nil, err
	}
	var res []domain.PnLRecord
	for _, p := range run.pnl {
		if symbol == "" || p.Symbol == symbol {
			res = append(res, p)
		}
	}
	return res, nil
}

// memTx stages writes and publishes them on Commit.
type memTx struct {
	repo   *MemoryRepo
	staged map[string]*runData
	done   bool
}

func (t *memTx) run(runID string) *runData {
	run, ok := t.staged[runID]
	if !ok {
		run = &runData{}
		t.staged[runID] = run
	}
	return run
}

func (t *memTx) SaveRun(ctx context.Context, s *domain.RunSummary) error {
	if s == nil {
		return errors.New("nil summary")
	}
	t.run(s.ID).summary = *s
	return nil
}

func (t *memTx) SaveOrders(ctx context.Context, runID string, orders []domain.OrderRecord) error {
	run := t.run(runID)
	run.orders = append(run.orders, orders...)
	return nil
}

func (t *memTx) SaveFills(ctx context.Context, runID string, fills []domain.Trade) error {
	run := t.run(runID)
	run.fills = append(run.fills, fills...)
	return nil
}

func (t *memTx) SaveMarketTrades(ctx context.Context, runID string, stage domain.TradeStage, trades []domain.Trade) error {
	run := t.run(runID)
	if stage == domain.StagePre {
		run.pre = append(run.pre, trades...)
	} else {
		run.post = append(run.post, trades...)
	}
	return nil
}

func (t *memTx) SavePnL(ctx context.Context, runID string, pnl []domain.PnLRecord) error {
	run := t.run(runID)
	run.pnl = append(run.pnl, pnl...)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("tx already closed")
	}
	t.done = true
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for id, run := range t.staged {
		t.repo.runs[id] = run
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	t.staged = nil
	return nil
}
