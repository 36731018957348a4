// Package config loads the YAML configuration shared by the backtest CLI and the server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/strategy"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Listings       []domain.Listing      `yaml:"listings"`
	PositionLimits domain.PositionLimits `yaml:"position_limits"`
	Data           Data                  `yaml:"data"`
	OutputDir      string                `yaml:"output_dir"`
	Strategy       Strategy              `yaml:"strategy"`
	Postgres       Postgres              `yaml:"postgres"`
	Redis          Redis                 `yaml:"redis"`
	HTTP           HTTP                  `yaml:"http"`
	GRPC           GRPC                  `yaml:"grpc"`
	Log            Log                   `yaml:"log"`
}

type Data struct {
	Prices    string `yaml:"prices"`
	Trades    string `yaml:"trades"`
	Delimiter string `yaml:"delimiter"`
}

type Strategy struct {
	Name   string          `yaml:"name"`
	Params strategy.Params `yaml:"params"`
}

// Postgres storage is used when DSN is set; otherwise runs are kept in memory.
type Postgres struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type HTTP struct {
	Addr      string        `yaml:"addr"`
	RateLimit time.Duration `yaml:"rate_limit"`
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the two-product setup used by the sample data.
func Default() Config {
	return Config{
		Listings: []domain.Listing{
			{Symbol: "AMETHYSTS", Product: "AMETHYSTS", Denomination: "SEASHELLS"},
			{Symbol: "STARFRUIT", Product: "STARFRUIT", Denomination: "SEASHELLS"},
		},
		PositionLimits: domain.PositionLimits{"AMETHYSTS": 20, "STARFRUIT": 20},
		Data:           Data{Delimiter: ";"},
		OutputDir:      "out",
		Strategy:       Strategy{Name: strategy.NameFairValue},
		Redis:          Redis{TTL: 10 * time.Minute},
		HTTP:           HTTP{Addr: ":8080", RateLimit: 100 * time.Millisecond},
		GRPC:           GRPC{Addr: ":9090"},
		Log:            Log{Level: "info"},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Listings) == 0 {
		return fmt.Errorf("%w: no listings", ErrInvalid)
	}
	for _, l := range c.Listings {
		if l.Symbol == "" || l.Product == "" {
			return fmt.Errorf("%w: listing needs symbol and product", ErrInvalid)
		}
		if lim, ok := c.PositionLimits[l.Symbol]; !ok || lim < 0 {
			return fmt.Errorf("%w: no position limit for %s", ErrInvalid, l.Symbol)
		}
	}
	if len([]rune(c.Data.Delimiter)) > 1 {
		return fmt.Errorf("%w: delimiter %q must be a single character", ErrInvalid, c.Data.Delimiter)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// DelimiterRune returns the CSV delimiter, zero meaning the reader default.
func (d Data) DelimiterRune() rune {
	for _, r := range d.Delimiter {
		return r
	}
	return 0
}

func (l Log) Logger() (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
