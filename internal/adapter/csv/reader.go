package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"github.com/shopspring/decimal"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("csv: missing column")

const DefaultDelimiter = ';'

var _ port.MarketDataSource = (*Source)(nil)

// Source reads a prices file and a trades file in the exchange export format.
type Source struct {
	PricesPath string
	TradesPath string
	Delimiter  rune
}

func NewSource(pricesPath, tradesPath string, delimiter rune) *Source {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	return &Source{PricesPath: pricesPath, TradesPath: tradesPath, Delimiter: delimiter}
}

func (s *Source) LoadBook(ctx context.Context) ([]domain.BookRow, error) {
	f, err := os.Open(s.PricesPath)
	if err != nil {
		return nil, fmt.Errorf("csv: open prices: %w", err)
	}
	defer f.Close()
	return ReadBook(f, s.Delimiter)
}

// LoadTrades returns no trades when no trades file is configured.
func (s *Source) LoadTrades(ctx context.Context) ([]domain.Trade, error) {
	if s.TradesPath == "" {
		return nil, nil
	}
	f, err := os.Open(s.TradesPath)
	if err != nil {
		return nil, fmt.Errorf("csv: open trades: %w", err)
	}
	defer f.Close()
	return ReadTrades(f, s.Delimiter)
}

type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	names, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	h := make(header, len(names))
	for i, n := range names {
		h[strings.TrimSpace(n)] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return h, nil
}

// cell returns the trimmed value of column name, empty when the column or value is absent.
func (h header) cell(rec []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) integer(rec []string, name string) (int64, bool, error) {
	v := h.cell(rec, name)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// volumes are sometimes exported as floats, e.g. "12.0"
		d, derr := decimal.NewFromString(v)
		if derr != nil || !d.IsInteger() {
			return 0, false, fmt.Errorf("csv: column %s: %w", name, err)
		}
		n = d.IntPart()
	}
	return n, true, nil
}

func (h header) number(rec []string, name string) (decimal.NullDecimal, error) {
	v := h.cell(rec, name)
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("csv: column %s: %w", name, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func newReader(r io.Reader, delimiter rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// ReadBook parses a prices file. Empty cells are missing values, never zero.
func ReadBook(r io.Reader, delimiter rune) ([]domain.BookRow, error) {
	cr := newReader(r, delimiter)
	h, err := readHeader(cr, "timestamp", "product")
	if err != nil {
		return nil, err
	}

	var rows []domain.BookRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: prices line %d: %w", line, err)
		}
		row, err := parseBookRow(h, rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseBookRow(h header, rec []string) (domain.BookRow, error) {
	var row domain.BookRow
	var err error
	var ok bool
	if row.Timestamp, ok, err = h.integer(rec, "timestamp"); err != nil {
		return row, err
	} else if !ok {
		return row, errors.New("csv: row without timestamp")
	}
	if row.Day, _, err = h.integer(rec, "day"); err != nil {
		return row, err
	}
	row.Product = h.cell(rec, "product")
	for i := 0; i < domain.MaxLevels; i++ {
		if row.Bids[i], err = parseQuote(h, rec, "bid", i+1); err != nil {
			return row, err
		}
		if row.Asks[i], err = parseQuote(h, rec, "ask", i+1); err != nil {
			return row, err
		}
	}
	if row.MidPrice, err = h.number(rec, "mid_price"); err != nil {
		return row, err
	}
	if row.ProfitAndLoss, err = h.number(rec, "profit_and_loss"); err != nil {
		return row, err
	}
	return row, nil
}

func parseQuote(h header, rec []string, side string, level int) (domain.Quote, error) {
	var q domain.Quote
	var err error
	if q.Price, err = h.number(rec, fmt.Sprintf("%s_price_%d", side, level)); err != nil {
		return q, err
	}
	q.Volume, q.HasVolume, err = h.integer(rec, fmt.Sprintf("%s_volume_%d", side, level))
	return q, err
}

// ReadTrades parses a trades file in tape order.
func ReadTrades(r io.Reader, delimiter rune) ([]domain.Trade, error) {
	cr := newReader(r, delimiter)
	h, err := readHeader(cr, "timestamp", "symbol", "price", "quantity")
	if err != nil {
		return nil, err
	}

	var trades []domain.Trade
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return trades, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: trades line %d: %w", line, err)
		}
		t, err := parseTrade(h, rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trades = append(trades, t)
	}
}

func parseTrade(h header, rec []string) (domain.Trade, error) {
	t := domain.Trade{
		Symbol: h.cell(rec, "symbol"),
		Buyer:  domain.ParseParty(h.cell(rec, "buyer")),
		Seller: domain.ParseParty(h.cell(rec, "seller")),
	}
	ts, ok, err := h.integer(rec, "timestamp")
	if err != nil {
		return t, err
	}
	if !ok {
		return t, errors.New("csv: trade without timestamp")
	}
	t.Timestamp = ts
	price, err := h.number(rec, "price")
	if err != nil {
		return t, err
	}
	qty, ok, err := h.integer(rec, "quantity")
	if err != nil {
		return t, err
	}
	if !price.Valid || !ok {
		return t, errors.New("csv: trade without price or quantity")
	}
	if qty <= 0 {
		return t, fmt.Errorf("csv: trade quantity %d must be positive", qty)
	}
	t.Price = price.Decimal
	t.Quantity = qty
	return t, nil
}
