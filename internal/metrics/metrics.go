// Package metrics provides the centralized Prometheus registry for the platform.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantdesk",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})
	BacktestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantdesk",
		Name:      "backtests_total",
		Help:      "Total number of backtest runs by strategy",
	}, []string{"strategy"})
	SignalsDetectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantdesk",
		Name:      "signals_detected_total",
		Help:      "Total number of detected signals by indicator and direction",
	}, []string{"strategy", "direction"})
	ReportsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quantdesk",
		Name:      "reports_generated_total",
		Help:      "Total number of daily reports generated",
	})
	MarketDataErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quantdesk",
		Name:      "market_data_errors_total",
		Help:      "Total number of failed market data fetches",
	})
	PaperTradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantdesk",
		Name:      "paper_trades_total",
		Help:      "Total number of executed paper trades by side",
	}, []string{"side"})
)

// Gauge metrics
var (
	MarketDataCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantdesk",
		Name:      "market_data_cache_hit_ratio",
		Help:      "Fraction of market data lookups served from cache",
	})
	OptimizerFallbacksTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantdesk",
		Name:      "optimizer_fallbacks",
		Help:      "Number of optimizer runs that fell back to equal weights",
	})
	WatchlistSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantdesk",
		Name:      "watchlist_size",
		Help:      "Number of symbols on the report watchlist",
	})
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quantdesk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quantdesk",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quantdesk",
		Name:      "report_duration_seconds",
		Help:      "Duration of daily report generation in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RequestsTotal)
		registry.MustRegister(BacktestsTotal)
		registry.MustRegister(SignalsDetectedTotal)
		registry.MustRegister(ReportsGeneratedTotal)
		registry.MustRegister(MarketDataErrorsTotal)
		registry.MustRegister(PaperTradesTotal)

		registry.MustRegister(MarketDataCacheHitRatio)
		registry.MustRegister(OptimizerFallbacksTotal)
		registry.MustRegister(WatchlistSize)

		registry.MustRegister(RequestDuration)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(ReportDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRequest records one handled HTTP request.
func RecordRequest(route, status string, durationSeconds float64) {
	RequestsTotal.WithLabelValues(route, status).Inc()
	RequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordBacktest records a completed backtest run.
func RecordBacktest(strategy string, durationSeconds float64) {
	BacktestsTotal.WithLabelValues(strategy).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordSignal records a detected signal event.
func RecordSignal(strategy, direction string) {
	SignalsDetectedTotal.WithLabelValues(strategy, direction).Inc()
}

// RecordReport records a completed daily report.
func RecordReport(durationSeconds float64) {
	ReportsGeneratedTotal.Inc()
	ReportDuration.Observe(durationSeconds)
}

// RecordMarketDataError records a failed fetch.
func RecordMarketDataError() {
	MarketDataErrorsTotal.Inc()
}

// RecordPaperTrade records an executed paper trade.
func RecordPaperTrade(side string) {
	PaperTradesTotal.WithLabelValues(side).Inc()
}

// RecordOptimizerFallback bumps the fallback gauge.
func RecordOptimizerFallback() {
	OptimizerFallbacksTotal.Inc()
}

// UpdateCacheHitRatio sets the market data cache hit ratio gauge.
func UpdateCacheHitRatio(hits, misses int64) {
	total := hits + misses
	if total == 0 {
		return
	}
	MarketDataCacheHitRatio.Set(float64(hits) / float64(total))
}
