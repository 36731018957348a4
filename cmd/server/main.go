package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	grpcapi "github.com/olyamironova/exchange-backtest/internal/api/grpc"
	httpapi "github.com/olyamironova/exchange-backtest/internal/api/http"
	"github.com/olyamironova/exchange-backtest/internal/app"
	"github.com/olyamironova/exchange-backtest/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	dataDir := flag.String("data-dir", ".", "directory that request data paths are resolved in")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("init", "error", err)
	}
	defer a.Close()

	srv := httpapi.NewHTTPServer(a.Service, httpapi.Defaults{
		DataDir:        *dataDir,
		Prices:         cfg.Data.Prices,
		Trades:         cfg.Data.Trades,
		Delimiter:      cfg.Data.DelimiterRune(),
		Listings:       cfg.Listings,
		PositionLimits: cfg.PositionLimits,
		Strategy:       cfg.Strategy.Name,
		Params:         cfg.Strategy.Params,
	}, logger)
	srv.RateLimit = cfg.HTTP.RateLimit
	srv.Metrics = a.Metrics.Handler()
	srv.OnRun = a.Metrics.RunFinished
	httpServer := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Handler()}

	health := grpcapi.NewGRPCServer(logger, a.Deps)
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logger.Fatalw("grpc listen", "addr", cfg.GRPC.Addr, "error", err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infow("http server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() { errCh <- health.Serve(lis) }()
	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			health.Check(ctx)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Infow("shutting down")
	case err := <-errCh:
		logger.Errorw("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown", "error", err)
	}
	health.Stop()
}
