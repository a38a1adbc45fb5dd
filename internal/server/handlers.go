package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/analytics"
	"github.com/yourusername/quantdesk/internal/backtest"
	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/forecast"
	"github.com/yourusername/quantdesk/internal/ledger"
	"github.com/yourusername/quantdesk/internal/marketdata"
	"github.com/yourusername/quantdesk/internal/metrics"
	"github.com/yourusername/quantdesk/internal/models"
	"github.com/yourusername/quantdesk/internal/portfolio"
	"github.com/yourusername/quantdesk/internal/signals"
)

// minSignalBars is the fewest bars the signal detectors will scan
const minSignalBars = 50

// MarketData is the market data surface the API depends on
type MarketData interface {
	History(ctx context.Context, symbol, period string) (models.PriceSeries, error)
	Quote(ctx context.Context, symbol string) (*marketdata.Quote, error)
	BulkQuotes(ctx context.Context, symbols []string) []marketdata.Quote
	AlignedCloses(ctx context.Context, symbols []string, period string) (*models.AlignedTable, error)
	CacheStats() (hits, misses int64)
	FlushCache()
}

// Ledger is the paper trading surface the API depends on
type Ledger interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	GetOrCreateAccount(ctx context.Context, userID string, initialBalance float64) (*models.Account, error)
	ExecuteTrade(ctx context.Context, userID, symbol string, side models.OrderSide, quantity, price float64) (*models.Trade, error)
	GetPortfolio(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)
	TradeHistory(ctx context.Context, userID, symbol string, limit int) ([]*models.Trade, error)
	RecordSignal(ctx context.Context, event *models.SignalEvent) (*models.StoredSignal, error)
	ListSignals(ctx context.Context, symbol string, limit int) ([]*models.StoredSignal, error)
}

// Handler carries the wired services behind the API routes
type Handler struct {
	market     MarketData
	forecaster forecast.Forecaster
	ledger     Ledger
	engine     *backtest.Engine
	cfg        *config.Config
	log        *logrus.Logger
}

// NewHandler wires the API handler
func NewHandler(market MarketData, forecaster forecast.Forecaster, paper Ledger, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		market:     market,
		forecaster: forecaster,
		ledger:     paper,
		engine:     backtest.NewEngine(log),
		cfg:        cfg,
		log:        log,
	}
}

// RegisterRoutes attaches every API route to the echo instance
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/api/health", h.Health)
	e.GET("/api/assets", h.Assets)
	e.GET("/api/quote/:symbol", h.Quote)
	e.GET("/api/quotes", h.BulkQuotes)
	e.GET("/api/asset/:symbol/price", h.Quote)
	e.GET("/api/asset/:symbol/history", h.History)
	e.GET("/api/asset/:symbol/metrics", h.AssetMetrics)
	e.GET("/api/asset/:symbol/strategy", h.RunStrategy)
	e.POST("/api/asset/:symbol/strategy", h.RunStrategy)
	e.GET("/api/asset/:symbol/compare", h.CompareStrategies)
	e.GET("/api/asset/:symbol/predict", h.Predict)
	e.POST("/api/portfolio/analyze", h.AnalyzePortfolio)
	e.GET("/api/portfolio/efficient-frontier", h.EfficientFrontier)
	e.GET("/api/calculate/portfolio-metrics", h.PortfolioMetrics)
	e.GET("/api/histories", h.Histories)
	e.GET("/api/market/overview", h.MarketOverview)
	e.POST("/api/paper-trading/user/create", h.CreatePaperUser)
	e.GET("/api/paper-trading/user/:user_id", h.GetPaperUser)
	e.POST("/api/paper-trading/trade", h.ExecutePaperTrade)
	e.GET("/api/paper-trading/portfolio/:user_id", h.PaperPortfolio)
	e.GET("/api/paper-trading/trades/:user_id", h.PaperTrades)
	e.GET("/api/signals/active", h.ActiveSignals)
	e.GET("/api/signals/:symbol", h.ScanSignals)
	e.DELETE("/api/cache/clear", h.ClearCache)
}

// Root reports basic service identity
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "online",
		"service":   h.cfg.App.Name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health is the API-level health check
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Assets returns the supported symbol catalog by category
func (h *Handler) Assets(c echo.Context) error {
	return c.JSON(http.StatusOK, supportedAssets)
}

// Quote returns a price snapshot for one symbol
func (h *Handler) Quote(c echo.Context) error {
	symbol := c.Param("symbol")
	quote, err := h.market.Quote(c.Request().Context(), symbol)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, quote)
}

// BulkQuotes returns snapshots for the overview scan list
func (h *Handler) BulkQuotes(c echo.Context) error {
	quotes := h.market.BulkQuotes(c.Request().Context(), overviewSymbols)
	metrics.UpdateCacheHitRatio(h.market.CacheStats())
	return c.JSON(http.StatusOK, quotes)
}

type barPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// History returns daily bars as chart-ready records
func (h *Handler) History(c echo.Context) error {
	symbol := c.Param("symbol")
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}

	series, err := h.market.History(c.Request().Context(), symbol, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	data := make([]barPoint, len(series))
	for i, bar := range series {
		data[i] = barPoint{
			Date:   bar.Date.Format("2006-01-02"),
			Open:   models.Round2(bar.Open),
			High:   models.Round2(bar.High),
			Low:    models.Round2(bar.Low),
			Close:  models.Round2(bar.Close),
			Volume: bar.Volume,
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"symbol":   symbol,
		"period":   period,
		"interval": "daily",
		"data":     data,
		"count":    len(data),
	})
}

// AssetMetrics computes the full risk/return summary for one symbol
func (h *Handler) AssetMetrics(c echo.Context) error {
	symbol := c.Param("symbol")
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}

	series, err := h.market.History(c.Request().Context(), symbol, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	summary := analytics.Compute(series, nil, h.analyticsOptions())
	return c.JSON(http.StatusOK, echo.Map{
		"symbol":  symbol,
		"period":  period,
		"metrics": summary,
	})
}

type strategyChartPoint struct {
	Date     string  `json:"date"`
	Price    float64 `json:"price"`
	Strategy float64 `json:"strategy"`
}

// RunStrategy backtests one strategy over the symbol's history
func (h *Handler) RunStrategy(c echo.Context) error {
	symbol := c.Param("symbol")
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}
	strategy := backtest.StrategyType(queryDefault(c, "strategy", string(backtest.StrategyBuyAndHold)))
	params := h.strategyParams(c)

	series, err := h.market.History(c.Request().Context(), symbol, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	start := time.Now()
	result, err := h.engine.Run(strategy, series, params)
	if err != nil {
		return h.mapError(err)
	}
	metrics.RecordBacktest(string(strategy), time.Since(start).Seconds())

	chart := make([]strategyChartPoint, len(series))
	for i, bar := range series {
		chart[i] = strategyChartPoint{
			Date:     bar.Date.Format("2006-01-02"),
			Price:    models.Round2(bar.Close),
			Strategy: models.Round4(result.CumulativeReturns[i]),
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"symbol":   symbol,
		"strategy": result.StrategyName,
		"metrics": echo.Map{
			"total_return":      result.TotalReturn,
			"annualized_return": result.AnnualizedReturn,
			"volatility":        result.Volatility,
			"sharpe_ratio":      result.SharpeRatio,
			"sortino_ratio":     result.SortinoRatio,
			"max_drawdown":      result.MaxDrawdown,
			"win_rate":          result.WinRate,
			"profit_factor":     result.ProfitFactor,
			"num_trades":        result.NumTrades,
		},
		"chart_data": chart,
	})
}

// CompareStrategies runs every strategy with shared parameters
func (h *Handler) CompareStrategies(c echo.Context) error {
	symbol := c.Param("symbol")
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}
	params := h.strategyParams(c)

	series, err := h.market.History(c.Request().Context(), symbol, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	configs := map[backtest.StrategyType]backtest.Params{
		backtest.StrategyBuyAndHold:    params,
		backtest.StrategyMomentum:      params,
		backtest.StrategyMeanReversion: params,
		backtest.StrategyMACrossover:   params,
	}
	results := h.engine.Compare(series, configs)
	return c.JSON(http.StatusOK, echo.Map{
		"symbol":  symbol,
		"period":  period,
		"results": results,
	})
}

// Predict proxies the forecasting service for one symbol
func (h *Handler) Predict(c echo.Context) error {
	symbol := c.Param("symbol")
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}
	horizon := queryInt(c, "forecast_days", h.cfg.Forecast.DefaultHorizonDays)
	if horizon < 7 || horizon > 365 {
		return echo.NewHTTPError(http.StatusBadRequest, "forecast_days must be between 7 and 365")
	}

	series, err := h.market.History(c.Request().Context(), symbol, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	prediction, err := h.forecaster.Predict(c.Request().Context(), symbol, series, horizon)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"symbol":     symbol,
		"prediction": prediction,
	})
}

type analyzeRequest struct {
	Symbols       []string       `json:"symbols"`
	CustomWeights models.Weights `json:"custom_weights"`
}

// AnalyzePortfolio runs the full portfolio report over aligned histories
func (h *Handler) AnalyzePortfolio(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Symbols) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "portfolio must have at least 2 assets")
	}
	weighting := portfolio.WeightingStrategy(queryDefault(c, "weighting", string(portfolio.EqualWeight)))
	rebalance := portfolio.RebalanceFrequency(queryDefault(c, "rebalance", h.cfg.Portfolio.DefaultRebalance))
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}
	if !validRebalance(rebalance) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rebalance frequency: "+string(rebalance))
	}

	table, err := h.market.AlignedCloses(c.Request().Context(), req.Symbols, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	analyzer := portfolio.NewAnalyzer(table, h.portfolioOptions(), h.log)
	report, err := analyzer.Analyze(weighting, req.CustomWeights, rebalance)
	if err != nil {
		return h.mapError(err)
	}
	if report.FallbackApplied {
		metrics.RecordOptimizerFallback()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"symbols":             table.Assets,
		"weighting_strategy":  weighting,
		"rebalance_frequency": rebalance,
		"metrics": echo.Map{
			"total_return":          report.TotalReturn,
			"annualized_return":     report.AnnualizedReturn,
			"volatility":            report.Volatility,
			"sharpe_ratio":          report.SharpeRatio,
			"max_drawdown":          report.MaxDrawdown,
			"diversification_ratio": report.DiversificationRatio,
		},
		"weights":            report.Weights,
		"fallback_applied":   report.FallbackApplied,
		"correlation_matrix": correlationList(table.Assets, report.CorrelationMatrix),
		"chart_data":         portfolioChart(table, report.CumulativeReturns),
		"individual_metrics": analyzer.IndividualMetrics(),
	})
}

// EfficientFrontier samples the risk/return landscape
func (h *Handler) EfficientFrontier(c echo.Context) error {
	symbols := c.QueryParams()["symbols"]
	if len(symbols) == 1 && strings.Contains(symbols[0], ",") {
		symbols = strings.Split(symbols[0], ",")
	}
	if len(symbols) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "need at least 2 assets")
	}
	period := queryDefault(c, "period", "1y")
	if !marketdata.ValidPeriod(period) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period: "+period)
	}
	nPortfolios := queryInt(c, "n_portfolios", 100)
	if nPortfolios < 50 || nPortfolios > h.cfg.Portfolio.FrontierSamples {
		return echo.NewHTTPError(http.StatusBadRequest, "n_portfolios out of range")
	}

	table, err := h.market.AlignedCloses(c.Request().Context(), symbols, period)
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	analyzer := portfolio.NewAnalyzer(table, h.portfolioOptions(), h.log)
	return c.JSON(http.StatusOK, echo.Map{
		"symbols":  table.Assets,
		"frontier": analyzer.EfficientFrontier(nPortfolios),
	})
}

// PortfolioMetrics is the quick scan variant taking CSV symbols
func (h *Handler) PortfolioMetrics(c echo.Context) error {
	symbols := splitCSV(c.QueryParam("symbols"))
	if len(symbols) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "portfolio must have at least 2 assets")
	}
	weighting := portfolio.WeightingStrategy(queryDefault(c, "weighting", string(portfolio.EqualWeight)))
	rebalance := portfolio.RebalanceFrequency(queryDefault(c, "rebalance", h.cfg.Portfolio.DefaultRebalance))
	if !validRebalance(rebalance) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rebalance frequency: "+string(rebalance))
	}

	table, err := h.market.AlignedCloses(c.Request().Context(), symbols, "1y")
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	analyzer := portfolio.NewAnalyzer(table, h.portfolioOptions(), h.log)
	report, err := analyzer.Analyze(weighting, nil, rebalance)
	if err != nil {
		return h.mapError(err)
	}
	if report.FallbackApplied {
		metrics.RecordOptimizerFallback()
	}

	histories := make(map[string][]echo.Map, len(table.Assets))
	for _, asset := range table.Assets {
		col := table.Column(asset)
		points := make([]echo.Map, len(table.Index))
		for i, ts := range table.Index {
			points[i] = echo.Map{
				"date":  ts.Format("2006-01-02"),
				"close": col[i],
			}
		}
		histories[asset] = points
	}

	return c.JSON(http.StatusOK, echo.Map{
		"correlation_matrix":    report.CorrelationMatrix,
		"portfolio_volatility":  report.Volatility / 100,
		"diversification_ratio": report.DiversificationRatio,
		"individual_metrics":    analyzer.IndividualMetrics(),
		"weights":               report.Weights,
		"portfolio_metrics": echo.Map{
			"total_return":      report.TotalReturn,
			"annualized_return": report.AnnualizedReturn,
			"volatility":        report.Volatility,
			"sharpe_ratio":      report.SharpeRatio,
			"max_drawdown":      report.MaxDrawdown,
		},
		"histories":  histories,
		"chart_data": portfolioChart(table, report.CumulativeReturns),
	})
}

// Histories returns aligned close columns for CSV symbols
func (h *Handler) Histories(c echo.Context) error {
	symbols := splitCSV(c.QueryParam("symbols"))
	if len(symbols) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "symbols query parameter is required")
	}

	table, err := h.market.AlignedCloses(c.Request().Context(), symbols, "1y")
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}

	result := make(map[string][]echo.Map, len(table.Assets))
	for _, asset := range table.Assets {
		col := table.Column(asset)
		points := make([]echo.Map, len(table.Index))
		for i, ts := range table.Index {
			points[i] = echo.Map{
				"date":  ts.Format("2006-01-02"),
				"close": col[i],
			}
		}
		result[asset] = points
	}
	return c.JSON(http.StatusOK, result)
}

// MarketOverview scans the index list; one failing symbol never aborts
func (h *Handler) MarketOverview(c echo.Context) error {
	quotes := h.market.BulkQuotes(c.Request().Context(), overviewSymbols)
	metrics.UpdateCacheHitRatio(h.market.CacheStats())
	return c.JSON(http.StatusOK, echo.Map{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"assets":    quotes,
	})
}

// CreatePaperUser provisions a paper trading account
func (h *Handler) CreatePaperUser(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	initialBalance := queryFloat(c, "initial_balance", ledger.DefaultInitialBalance)

	account, err := h.ledger.GetOrCreateAccount(c.Request().Context(), userID, initialBalance)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"user_id":         account.UserID,
		"initial_balance": account.InitialBalance,
	})
}

// GetPaperUser returns account information
func (h *Handler) GetPaperUser(c echo.Context) error {
	account, err := h.ledger.GetAccount(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// ExecutePaperTrade fills a buy or sell order at the live price
func (h *Handler) ExecutePaperTrade(c echo.Context) error {
	userID := c.QueryParam("user_id")
	symbol := c.QueryParam("symbol")
	if userID == "" || symbol == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and symbol are required")
	}
	side := models.OrderSide(strings.ToLower(c.QueryParam("order_type")))
	if side != models.OrderSideBuy && side != models.OrderSideSell {
		return echo.NewHTTPError(http.StatusBadRequest, "order type must be 'buy' or 'sell'")
	}
	quantity := queryFloat(c, "quantity", 0)
	if quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}

	quote, err := h.market.Quote(c.Request().Context(), symbol)
	if err != nil {
		metrics.RecordMarketDataError()
		return echo.NewHTTPError(http.StatusNotFound, "could not fetch price for "+symbol)
	}

	trade, err := h.ledger.ExecuteTrade(c.Request().Context(), userID, symbol, side, quantity, quote.Price)
	if err != nil {
		return h.mapError(err)
	}
	metrics.RecordPaperTrade(string(side))

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"trade_id":     trade.ID,
		"symbol":       trade.Symbol,
		"order_type":   trade.Side,
		"quantity":     trade.Quantity,
		"price":        trade.Price,
		"total_amount": trade.TotalAmount,
	})
}

// PaperPortfolio returns the account marked to live prices
func (h *Handler) PaperPortfolio(c echo.Context) error {
	userID := c.Param("user_id")
	if _, err := h.ledger.GetAccount(c.Request().Context(), userID); err != nil {
		return h.mapError(err)
	}
	snapshot, err := h.ledger.GetPortfolio(c.Request().Context(), userID)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// PaperTrades returns trade history with optional symbol filter
func (h *Handler) PaperTrades(c echo.Context) error {
	userID := c.Param("user_id")
	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
	}

	trades, err := h.ledger.TradeHistory(c.Request().Context(), userID, c.QueryParam("symbol"), limit)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":      userID,
		"trades_count": len(trades),
		"trades":       trades,
	})
}

// ActiveSignals lists persisted signals
func (h *Handler) ActiveSignals(c echo.Context) error {
	limit := queryInt(c, "limit", 20)
	if limit < 1 || limit > 50 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 50")
	}

	stored, err := h.ledger.ListSignals(c.Request().Context(), c.QueryParam("symbol"), limit)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"signals_count": len(stored),
		"signals":       stored,
	})
}

// ScanSignals runs all detectors over the latest bars and persists hits
func (h *Handler) ScanSignals(c echo.Context) error {
	symbol := c.Param("symbol")

	series, err := h.market.History(c.Request().Context(), symbol, "1y")
	if err != nil {
		metrics.RecordMarketDataError()
		return h.mapError(err)
	}
	if len(series) < minSignalBars {
		return echo.NewHTTPError(http.StatusNotFound, "insufficient data for "+symbol)
	}

	detector := signals.NewDetector(series, h.log)
	events := detector.DetectAll(symbol)
	for i := range events {
		metrics.RecordSignal(events[i].Strategy, string(events[i].Direction))
		if _, err := h.ledger.RecordSignal(c.Request().Context(), &events[i]); err != nil {
			h.log.WithError(err).Warn("Failed to persist signal")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"symbol":        symbol,
		"signals_count": len(events),
		"signals":       events,
	})
}

// ClearCache flushes the market data cache
func (h *Handler) ClearCache(c echo.Context) error {
	h.market.FlushCache()
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "Cache cleared",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) analyticsOptions() analytics.Options {
	return analytics.Options{
		RiskFreeRate:    h.cfg.Analytics.RiskFreeRate,
		PeriodsPerYear:  h.cfg.Analytics.PeriodsPerYear,
		ConfidenceLevel: h.cfg.Analytics.ConfidenceLevel,
	}
}

func (h *Handler) portfolioOptions() portfolio.Options {
	return portfolio.Options{
		RiskFreeRate:        h.cfg.Analytics.RiskFreeRate,
		PeriodsPerYear:      h.cfg.Analytics.PeriodsPerYear,
		MaxSharpeIterations: h.cfg.Portfolio.MaxSharpeIterations,
		TurnoverCostRate:    h.cfg.Portfolio.TurnoverCostRate,
	}
}

func (h *Handler) strategyParams(c echo.Context) backtest.Params {
	params := backtest.DefaultParams()
	params.TransactionCost = h.cfg.Backtest.TransactionCost
	params.Slippage = h.cfg.Backtest.Slippage
	params.RiskFreeRate = h.cfg.Analytics.RiskFreeRate
	params.PeriodsPerYear = h.cfg.Analytics.PeriodsPerYear
	params.LookbackPeriod = clamp(queryInt(c, "lookback_period", params.LookbackPeriod), 5, 200)
	params.Window = clamp(queryInt(c, "window", params.Window), 5, 200)
	params.ShortWindow = clamp(queryInt(c, "short_window", params.ShortWindow), 5, 100)
	params.LongWindow = clamp(queryInt(c, "long_window", params.LongWindow), 20, 200)
	return params
}

// mapError converts service errors to HTTP status codes
func (h *Handler) mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, models.ErrNoData), errors.Is(err, models.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUnknownStrategy),
		errors.Is(err, models.ErrUnknownWeighting),
		errors.Is(err, models.ErrInsufficientData),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientShares),
		errors.Is(err, forecast.ErrInsufficientHistory):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.log.WithError(err).Error("Request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// portfolioChart zips normalized asset prices with the portfolio wealth
// curve. Row 0 is the first aligned bar where everything is 1.0.
func portfolioChart(table *models.AlignedTable, cumulative []float64) []map[string]interface{} {
	chart := make([]map[string]interface{}, 0, len(table.Index))
	for i, ts := range table.Index {
		point := map[string]interface{}{"date": ts.Format("2006-01-02")}
		for _, asset := range table.Assets {
			col := table.Column(asset)
			if col[0] != 0 {
				point[asset] = models.Round4(col[i] / col[0])
			}
		}
		// cumulative[j] covers bar j+1; the first bar starts at 1
		if i == 0 {
			point["portfolio"] = 1.0
		} else if i-1 < len(cumulative) {
			point["portfolio"] = models.Round4(cumulative[i-1])
		}
		chart = append(chart, point)
	}
	return chart
}

type correlationPair struct {
	Asset1      string  `json:"asset1"`
	Asset2      string  `json:"asset2"`
	Correlation float64 `json:"correlation"`
}

func correlationList(assets []string, matrix map[string]map[string]float64) []correlationPair {
	pairs := make([]correlationPair, 0, len(assets)*len(assets))
	for _, a := range assets {
		for _, b := range assets {
			pairs = append(pairs, correlationPair{
				Asset1:      a,
				Asset2:      b,
				Correlation: matrix[a][b],
			})
		}
	}
	return pairs
}

func validRebalance(freq portfolio.RebalanceFrequency) bool {
	switch freq {
	case portfolio.RebalanceDaily, portfolio.RebalanceWeekly, portfolio.RebalanceMonthly, portfolio.RebalanceQuarterly:
		return true
	}
	return false
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func queryDefault(c echo.Context, name, fallback string) string {
	if v := c.QueryParam(name); v != "" {
		return v
	}
	return fallback
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c echo.Context, name string, fallback float64) float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
