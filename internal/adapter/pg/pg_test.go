package pg

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericIsExact(t *testing.T) {
	for _, v := range []string{"0", "10001", "-30", "5039.5", "0.000001", "-123456789.987654321"} {
		d := decimal.RequireFromString(v)
		n := numeric(d)
		require.True(t, n.Valid)
		back := decimal.NewFromBigInt(n.Int, n.Exp)
		assert.True(t, back.Equal(d), v)
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"backtest_runs", "backtest_orders", "backtest_trades", "backtest_pnl"} {
		assert.Contains(t, schema, table)
	}
}
