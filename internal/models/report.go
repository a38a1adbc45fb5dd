package models

import (
	"math"
	"time"
)

// ProfitFactorOutcome classifies the profit-factor calculation so that the
// "no losing trades" case stays serializable instead of becoming +Inf.
type ProfitFactorOutcome string

const (
	ProfitFactorDefined  ProfitFactorOutcome = "defined"
	ProfitFactorNoLosses ProfitFactorOutcome = "no_losses"
	ProfitFactorNoTrades ProfitFactorOutcome = "no_trades"
)

// ProfitFactorSentinel replaces mathematical infinity when a strategy has
// gross profits but no gross losses.
const ProfitFactorSentinel = 999.99

// DrawdownInfo carries the maximum drawdown with its peak and trough dates.
// Value is a positive percentage; Peak never comes after Trough.
type DrawdownInfo struct {
	Value  float64   `json:"value"`
	Peak   time.Time `json:"peak"`
	Trough time.Time `json:"trough"`
}

// MetricsSummary bundles the scalar risk/performance statistics for one
// return series. All percentage fields are rounded to 2 decimals.
type MetricsSummary struct {
	TotalReturn      float64      `json:"total_return"`
	AnnualizedReturn float64      `json:"annualized_return"`
	Volatility       float64      `json:"volatility"`
	SharpeRatio      float64      `json:"sharpe_ratio"`
	SortinoRatio     float64      `json:"sortino_ratio"`
	CalmarRatio      float64      `json:"calmar_ratio"`
	MaxDrawdown      DrawdownInfo `json:"max_drawdown"`
	VaR              float64      `json:"var"`
	CVaR             float64      `json:"cvar"`
	Skewness         float64      `json:"skewness"`
	Kurtosis         float64      `json:"kurtosis"`
	BestPeriod       float64      `json:"best_period"`
	WorstPeriod      float64      `json:"worst_period"`
	PositivePeriods  int          `json:"positive_periods"`
	NegativePeriods  int          `json:"negative_periods"`
	Beta             *float64     `json:"beta,omitempty"`
	Alpha            *float64     `json:"alpha,omitempty"`
	InformationRatio *float64     `json:"information_ratio,omitempty"`
}

// StrategyResult is the performance report produced by one backtest run.
// It is computed once per (strategy, parameters, price window) and never
// mutated afterwards.
type StrategyResult struct {
	StrategyName        string              `json:"strategy_name"`
	TotalReturn         float64             `json:"total_return"`
	AnnualizedReturn    float64             `json:"annualized_return"`
	Volatility          float64             `json:"volatility"`
	SharpeRatio         float64             `json:"sharpe_ratio"`
	SortinoRatio        float64             `json:"sortino_ratio"`
	CalmarRatio         float64             `json:"calmar_ratio"`
	MaxDrawdown         float64             `json:"max_drawdown"`
	WinRate             float64             `json:"win_rate"`
	ProfitFactor        float64             `json:"profit_factor"`
	ProfitFactorOutcome ProfitFactorOutcome `json:"profit_factor_outcome"`
	NumTrades           int                 `json:"num_trades"`
	CumulativeReturns   []float64           `json:"cumulative_returns"`
	Signals             []int               `json:"signals"`
}

// Weights maps asset symbols to portfolio fractions.
// Values are non-negative and sum to ~1 after normalization.
type Weights map[string]float64

// Sum returns the total of all weight entries
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Normalized returns a copy scaled to sum to 1. A zero or negative total
// yields an empty map.
func (w Weights) Normalized() Weights {
	total := w.Sum()
	if total <= 0 {
		return Weights{}
	}
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v / total
	}
	return out
}

// PortfolioReport is the analysis result for one weighted portfolio.
type PortfolioReport struct {
	TotalReturn          float64              `json:"total_return"`
	AnnualizedReturn     float64              `json:"annualized_return"`
	Volatility           float64              `json:"volatility"`
	SharpeRatio          float64              `json:"sharpe_ratio"`
	MaxDrawdown          float64              `json:"max_drawdown"`
	DiversificationRatio float64              `json:"diversification_ratio"`
	Weights              Weights              `json:"weights"`
	FallbackApplied      bool                 `json:"fallback_applied"`
	CorrelationMatrix    map[string]map[string]float64 `json:"correlation_matrix"`
	CumulativeReturns    []float64            `json:"cumulative_returns"`
}

// FrontierPoint is one Monte Carlo sample on the illustrative frontier scan.
type FrontierPoint struct {
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
	Weights    Weights `json:"weights"`
}

// BenchmarkComparison relates a portfolio to a benchmark return series.
type BenchmarkComparison struct {
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	TrackingError    float64 `json:"tracking_error"`
	InformationRatio float64 `json:"information_ratio"`
}

// Round2 rounds to 2 decimal places, used for percentages and prices
func Round2(v float64) float64 {
	return roundTo(v, 2)
}

// Round4 rounds to 4 decimal places, used for weights and normalized series
func Round4(v float64) float64 {
	return roundTo(v, 4)
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
