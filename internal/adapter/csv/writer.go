package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/shopspring/decimal"
)

var tradeHeader = []string{"timestamp", "buyer", "seller", "symbol", "currency", "price", "quantity"}

func newWriter(w io.Writer, delimiter rune) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return cw
}

// WriteTrades writes trades in the input column layout. The currency column is
// the denomination of the trade's listing.
func WriteTrades(w io.Writer, delimiter rune, listings []domain.Listing, trades []domain.Trade) error {
	currency := make(map[string]string, len(listings))
	for _, l := range listings {
		currency[l.Symbol] = l.Denomination
	}
	cw := newWriter(w, delimiter)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		rec := []string{
			strconv.FormatInt(t.Timestamp, 10),
			t.Buyer.String(),
			t.Seller.String(),
			t.Symbol,
			currency[t.Symbol],
			t.Price.String(),
			strconv.FormatInt(t.Quantity, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteOrders(w io.Writer, delimiter rune, orders []domain.OrderRecord) error {
	cw := newWriter(w, delimiter)
	if err := cw.Write([]string{"timestamp", "symbol", "price", "quantity"}); err != nil {
		return err
	}
	for _, o := range orders {
		rec := []string{
			strconv.FormatInt(o.Timestamp, 10),
			o.Symbol,
			o.Price.String(),
			strconv.FormatInt(o.Quantity, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func priceHeader() []string {
	h := []string{"day", "timestamp", "product"}
	for _, side := range []string{"bid", "ask"} {
		for i := 1; i <= domain.MaxLevels; i++ {
			h = append(h, fmt.Sprintf("%s_price_%d", side, i), fmt.Sprintf("%s_volume_%d", side, i))
		}
	}
	return append(h, "mid_price", "profit_and_loss")
}

// WritePrices re-emits the book rows with profit_and_loss taken from the PnL
// record of the same timestamp and symbol. Rows without a record get an empty cell.
func WritePrices(w io.Writer, delimiter rune, rows []domain.BookRow, listings []domain.Listing, pnl []domain.PnLRecord) error {
	symbolOf := make(map[string]string, len(listings))
	for _, l := range listings {
		symbolOf[l.Product] = l.Symbol
	}
	type key struct {
		ts     int64
		symbol string
	}
	byKey := make(map[key]decimal.Decimal, len(pnl))
	for _, p := range pnl {
		byKey[key{p.Timestamp, p.Symbol}] = p.PnL
	}

	cw := newWriter(w, delimiter)
	if err := cw.Write(priceHeader()); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{strconv.FormatInt(r.Day, 10), strconv.FormatInt(r.Timestamp, 10), r.Product}
		for _, quotes := range [][domain.MaxLevels]domain.Quote{r.Bids, r.Asks} {
			for _, q := range quotes {
				rec = append(rec, nullString(q.Price), volumeString(q))
			}
		}
		var pl decimal.NullDecimal
		if v, ok := byKey[key{r.Timestamp, symbolOf[r.Product]}]; ok {
			pl = decimal.NullDecimal{Decimal: v, Valid: true}
		}
		rec = append(rec, nullString(r.MidPrice), nullString(pl))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func volumeString(q domain.Quote) string {
	if !q.HasVolume {
		return ""
	}
	return strconv.FormatInt(q.Volume, 10)
}

// WriteResult writes every output sequence of a run into dir.
func WriteResult(dir string, delimiter rune, rows []domain.BookRow, listings []domain.Listing, res *domain.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"orders.csv", func(w io.Writer) error { return WriteOrders(w, delimiter, res.Orders) }},
		{"fills.csv", func(w io.Writer) error { return WriteTrades(w, delimiter, listings, res.Fills) }},
		{"trades_pre.csv", func(w io.Writer) error { return WriteTrades(w, delimiter, listings, res.MarketTradesPre) }},
		{"trades_post.csv", func(w io.Writer) error { return WriteTrades(w, delimiter, listings, res.MarketTradesPost) }},
		{"prices.csv", func(w io.Writer) error { return WritePrices(w, delimiter, rows, listings, res.PnL) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	return f.Close()
}
