package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olyamironova/exchange-backtest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const prices = `day;timestamp;product;bid_price_1;bid_volume_1;ask_price_1;ask_volume_1;mid_price;profit_and_loss
-1;0;AMETHYSTS;9998;5;10002;5;10000.0;0.0
-1;0;STARFRUIT;5036;5;5043;5;5039.5;0.0
-1;100;AMETHYSTS;9996;5;9999;5;9997.5;0.0
-1;100;STARFRUIT;5036;5;5043;5;5039.5;0.0
`

func TestRunWritesResultFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prices.csv"), []byte(prices), 0o644))

	cfg := config.Default()
	cfg.Data.Prices = filepath.Join(dir, "prices.csv")
	cfg.OutputDir = filepath.Join(dir, "out")

	require.NoError(t, run(context.Background(), cfg, zap.NewNop().Sugar()))

	for _, name := range []string{"orders.csv", "fills.csv", "trades_pre.csv", "trades_post.csv", "prices.csv"} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name))
	}
	b, err := os.ReadFile(filepath.Join(cfg.OutputDir, "prices.csv"))
	require.NoError(t, err)
	assert.Equal(t, 5, len(strings.Split(strings.TrimSpace(string(b)), "\n")), "header plus one row per product and timestamp")
}

func TestRunUnknownStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy.Name = "martingale"
	assert.Error(t, run(context.Background(), cfg, zap.NewNop().Sugar()))
}

func TestOverride(t *testing.T) {
	v := "a"
	override(&v, "")
	assert.Equal(t, "a", v)
	override(&v, "b")
	assert.Equal(t, "b", v)
}
