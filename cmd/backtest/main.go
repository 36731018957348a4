package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/olyamironova/exchange-backtest/internal/config"
	"github.com/olyamironova/exchange-backtest/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	prices := flag.String("prices", "", "prices CSV (overrides config)")
	trades := flag.String("trades", "", "trades CSV (overrides config)")
	out := flag.String("out", "", "output directory (overrides config)")
	strategyName := flag.String("strategy", "", fmt.Sprintf("strategy to replay, one of %v", strategy.Names()))
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	override(&cfg.Data.Prices, *prices)
	override(&cfg.Data.Trades, *trades)
	override(&cfg.OutputDir, *out)
	override(&cfg.Strategy.Name, *strategyName)
	if cfg.Data.Prices == "" {
		log.Fatal("no prices file: set data.prices or -prices")
	}

	logger, err := cfg.Log.Logger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Errorw("backtest failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
