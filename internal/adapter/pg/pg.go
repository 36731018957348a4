package pg

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

const stageFill = "fill"

var _ port.Repository = (*PgRepo)(nil)

type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Migrate creates the result tables when they do not exist.
func (p *PgRepo) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pg: migrate: %w", err)
	}
	return nil
}

func (p *PgRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func (p *PgRepo) LoadSummary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT summary FROM backtest_runs WHERE id = $1`, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, port.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pg: load summary: %w", err)
	}
	var s domain.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("pg: decode summary: %w", err)
	}
	return &s, nil
}

// ListRuns returns every run summary, newest first.
func (p *PgRepo) ListRuns(ctx context.Context) ([]domain.RunSummary, error) {
	rows, err := p.pool.Query(ctx, `SELECT summary FROM backtest_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pg: list runs: %w", err)
	}
	defer rows.Close()

	var res []domain.RunSummary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var s domain.RunSummary
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("pg: decode summary: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (p *PgRepo) LoadOrders(ctx context.Context, runID string) ([]domain.OrderRecord, error) {
	rows, err := p.pool.Query(ctx, `
SELECT timestamp, symbol, price::text, quantity
FROM backtest_orders
WHERE run_id = $1
ORDER BY seq ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("pg: load orders: %w", err)
	}
	defer rows.Close()

	var res []domain.OrderRecord
	for rows.Next() {
		var o domain.OrderRecord
		var price string
		if err := rows.Scan(&o.Timestamp, &o.Symbol, &price, &o.Quantity); err != nil {
			return nil, err
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("pg: order price: %w", err)
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (p *PgRepo) LoadFills(ctx context.Context, runID string) ([]domain.Trade, error) {
	return p.loadTrades(ctx, runID, stageFill)
}

func (p *PgRepo) LoadMarketTrades(ctx context.Context, runID string, stage domain.TradeStage) ([]domain.Trade, error) {
	return p.loadTrades(ctx, runID, string(stage))
}

func (p *PgRepo) loadTrades(ctx context.Context, runID, stage string) ([]domain.Trade, error) {
	rows, err := p.pool.Query(ctx, `
SELECT timestamp, symbol, price::text, quantity, buyer, seller
FROM backtest_trades
WHERE run_id = $1 AND stage = $2
ORDER BY seq ASC
`, runID, stage)
	if err != nil {
		return nil, fmt.Errorf("pg: load trades: %w", err)
	}
	defer rows.Close()

	var res []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var price, buyer, seller string
		if err := rows.Scan(&t.Timestamp, &t.Symbol, &price, &t.Quantity, &buyer, &seller); err != nil {
			return nil, err
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("pg: trade price: %w", err)
		}
		t.Buyer = domain.ParseParty(buyer)
		t.Seller = domain.ParseParty(seller)
		res = append(res, t)
	}
	return res, rows.Err()
}

// LoadPnL returns the PnL series ordered by timestamp; an empty symbol selects all symbols.
func (p *PgRepo) LoadPnL(ctx context.Context, runID, symbol string) ([]domain.PnLRecord, error) {
	rows, err := p.pool.Query(ctx, `
SELECT timestamp, symbol, mid_price::text, position, cash::text, pnl::text
FROM backtest_pnl
WHERE run_id = $1 AND ($2 = '' OR symbol = $2)
ORDER BY timestamp ASC, symbol ASC
`, runID, symbol)
	if err != nil {
		return nil, fmt.Errorf("pg: load pnl: %w", err)
	}
	defer rows.Close()

	var res []domain.PnLRecord
	for rows.Next() {
		var r domain.PnLRecord
		var mid, cash, pnl string
		if err := rows.Scan(&r.Timestamp, &r.Symbol, &mid, &r.Position, &cash, &pnl); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{{&r.MidPrice, mid}, {&r.Cash, cash}, {&r.PnL, pnl}} {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("pg: pnl value: %w", err)
			}
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// numeric converts a decimal exactly for the binary copy protocol.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) SaveRun(ctx context.Context, s *domain.RunSummary) error {
	if s == nil {
		return errors.New("nil summary")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
INSERT INTO backtest_runs(id, strategy, started_at, finished_at, timestamps, fills, total_pnl, summary)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  finished_at = EXCLUDED.finished_at,
  timestamps = EXCLUDED.timestamps,
  fills = EXCLUDED.fills,
  total_pnl = EXCLUDED.total_pnl,
  summary = EXCLUDED.summary
`, s.ID, s.Strategy, s.StartedAt, s.FinishedAt, s.Timestamps, s.Fills, numeric(s.TotalPnL), string(b))
	if err != nil {
		return fmt.Errorf("pg: save run: %w", err)
	}
	return nil
}

func (t *pgTx) SaveOrders(ctx context.Context, runID string, orders []domain.OrderRecord) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"backtest_orders"},
		[]string{"run_id", "seq", "timestamp", "symbol", "price", "quantity"},
		pgx.CopyFromSlice(len(orders), func(i int) ([]any, error) {
			o := orders[i]
			return []any{runID, i, o.Timestamp, o.Symbol, numeric(o.Price), o.Quantity}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("pg: save orders: %w", err)
	}
	return nil
}

func (t *pgTx) SaveFills(ctx context.Context, runID string, fills []domain.Trade) error {
	return t.saveTrades(ctx, runID, stageFill, fills)
}

func (t *pgTx) SaveMarketTrades(ctx context.Context, runID string, stage domain.TradeStage, trades []domain.Trade) error {
	return t.saveTrades(ctx, runID, string(stage), trades)
}

func (t *pgTx) saveTrades(ctx context.Context, runID, stage string, trades []domain.Trade) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"backtest_trades"},
		[]string{"run_id", "stage", "seq", "timestamp", "symbol", "price", "quantity", "buyer", "seller"},
		pgx.CopyFromSlice(len(trades), func(i int) ([]any, error) {
			tr := trades[i]
			return []any{runID, stage, i, tr.Timestamp, tr.Symbol, numeric(tr.Price), tr.Quantity, tr.Buyer.String(), tr.Seller.String()}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("pg: save %s trades: %w", stage, err)
	}
	return nil
}

func (t *pgTx) SavePnL(ctx context.Context, runID string, pnl []domain.PnLRecord) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"backtest_pnl"},
		[]string{"run_id", "timestamp", "symbol", "mid_price", "position", "cash", "pnl"},
		pgx.CopyFromSlice(len(pnl), func(i int) ([]any, error) {
			r := pnl[i]
			return []any{runID, r.Timestamp, r.Symbol, numeric(r.MidPrice), r.Position, numeric(r.Cash), numeric(r.PnL)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("pg: save pnl: %w", err)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
