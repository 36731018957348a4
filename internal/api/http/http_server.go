package http

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/exchange-backtest/internal/adapter/csv"
	"github.com/olyamironova/exchange-backtest/internal/api/dto"
	"github.com/olyamironova/exchange-backtest/internal/core"
	"github.com/olyamironova/exchange-backtest/internal/domain"
	"github.com/olyamironova/exchange-backtest/internal/middleware"
	"github.com/olyamironova/exchange-backtest/internal/port"
	"github.com/olyamironova/exchange-backtest/internal/strategy"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

// Defaults fill in whatever a run request leaves out. Data files named in a
// request are resolved inside DataDir.
type Defaults struct {
	DataDir        string
	Prices         string
	Trades         string
	Delimiter      rune
	Listings       []domain.Listing
	PositionLimits domain.PositionLimits
	Strategy       string
	Params         strategy.Params
}

type HTTPServer struct {
	Svc       *core.Service
	Defaults  Defaults
	Logger    *zap.SugaredLogger
	RateLimit time.Duration
	Metrics   http.Handler
	OnRun     func(error)
}

func NewHTTPServer(svc *core.Service, defaults Defaults, logger *zap.SugaredLogger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HTTPServer{Svc: svc, Defaults: defaults, Logger: logger}
}

func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(s.Logger))

	rl := middleware.NewRateLimiter(s.RateLimit)
	r.POST("/backtests", rl.Middleware(), s.runBacktest)
	r.GET("/backtests", s.listRuns)
	r.GET("/backtests/:id", s.getSummary)
	r.GET("/backtests/:id/pnl", s.getPnL)
	r.GET("/backtests/:id/fills", s.getFills)
	r.GET("/backtests/:id/orders", s.getOrders)
	r.GET("/backtests/:id/trades", s.getMarketTrades)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics))
	}
	return r
}

func (s *HTTPServer) runBacktest(c *gin.Context) {
	var req dto.RunBacktestRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}
	runReq, err := s.buildRun(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.Svc.Run(c.Request.Context(), runReq)
	if s.OnRun != nil {
		s.OnRun(err)
	}
	if res == nil {
		s.fail(c, err)
		return
	}
	resp := dto.RunBacktestResponse{Summary: res.Summary()}
	if err != nil {
		// the partial run was stored; report it together with the failure
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *HTTPServer) buildRun(req dto.RunBacktestRequest) (core.RunRequest, error) {
	d := s.Defaults
	prices, err := s.dataPath(req.Prices, d.Prices)
	if err != nil {
		return core.RunRequest{}, err
	}
	trades, err := s.dataPath(req.Trades, d.Trades)
	if err != nil {
		return core.RunRequest{}, err
	}
	if prices == "" {
		return core.RunRequest{}, fmt.Errorf("%w: no prices file", errBadRequest)
	}

	listings, limits := d.Listings, d.PositionLimits
	if len(req.Listings) > 0 {
		listings = req.Listings
	}
	if len(req.PositionLimits) > 0 {
		limits = req.PositionLimits
	}
	name, params := d.Strategy, d.Params
	if req.Strategy != "" {
		name, params = req.Strategy, req.Params
	}
	strat, err := strategy.New(name, params, limits)
	if err != nil {
		return core.RunRequest{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if name == "" {
		name = strategy.NameFairValue
	}

	return core.RunRequest{
		Source:       csv.NewSource(prices, trades, d.Delimiter),
		Strategy:     strat,
		StrategyName: name,
		Listings:     listings,
		Limits:       limits,
	}, nil
}

func (s *HTTPServer) dataPath(requested, fallback string) (string, error) {
	if requested == "" {
		return fallback, nil
	}
	if !filepath.IsLocal(requested) {
		return "", fmt.Errorf("%w: data path %q escapes the data directory", errBadRequest, requested)
	}
	return filepath.Join(s.Defaults.DataDir, requested), nil
}

func (s *HTTPServer) listRuns(c *gin.Context) {
	runs, err := s.Svc.ListRuns(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	c.JSON(http.StatusOK, dto.ListRunsResponse{Runs: runs})
}

func (s *HTTPServer) getSummary(c *gin.Context) {
	sum, err := s.Svc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *HTTPServer) getPnL(c *gin.Context) {
	pnl, err := s.Svc.PnL(c.Request.Context(), c.Param("id"), c.Query("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if pnl == nil {
		pnl = []domain.PnLRecord{}
	}
	c.JSON(http.StatusOK, dto.PnLResponse{PnL: pnl})
}

func (s *HTTPServer) getFills(c *gin.Context) {
	fills, err := s.Svc.Fills(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TradesResponse{Trades: dto.FromTrades(fills)})
}

func (s *HTTPServer) getOrders(c *gin.Context) {
	orders, err := s.Svc.Orders(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrdersResponse{Orders: dto.FromOrders(orders)})
}

func (s *HTTPServer) getMarketTrades(c *gin.Context) {
	stage := domain.TradeStage(c.DefaultQuery("stage", string(domain.StagePost)))
	if stage != domain.StagePre && stage != domain.StagePost {
		s.fail(c, fmt.Errorf("%w: stage must be %q or %q", errBadRequest, domain.StagePre, domain.StagePost))
		return
	}
	trades, err := s.Svc.MarketTrades(c.Request.Context(), c.Param("id"), stage)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TradesResponse{Trades: dto.FromTrades(trades)})
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, fs.ErrNotExist):
		return http.StatusBadRequest
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConfig), errors.Is(err, core.ErrMalformedOrder), errors.Is(err, core.ErrStrategy),
		errors.Is(err, csv.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
