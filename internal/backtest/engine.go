package backtest

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quantdesk/internal/models"
)

// Engine runs trading strategies over historical price series
type Engine struct {
	log *logrus.Logger
}

// NewEngine creates a backtest engine
func NewEngine(log *logrus.Logger) *Engine {
	return &Engine{log: log}
}

// Run executes one strategy over the price series. Unknown strategy types
// return models.ErrUnknownStrategy; a panic inside a strategy is recovered
// and surfaced as an error.
func (e *Engine) Run(strategy StrategyType, prices models.PriceSeries, params Params) (result *models.StrategyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"strategy": strategy,
				"panic":    r,
			}).Error("Strategy execution panicked")
			result = nil
			err = fmt.Errorf("strategy %s failed: %v", strategy, r)
		}
	}()

	if len(prices) < 2 {
		return nil, models.ErrInsufficientData
	}
	params = params.withDefaults()

	var signals []int
	var name string
	switch strategy {
	case StrategyBuyAndHold:
		signals = buyAndHoldSignals(len(prices))
		name = "Buy and Hold"
	case StrategyMomentum:
		signals = momentumSignals(prices, params.LookbackPeriod, params.UseVolumeConfirmation)
		name = fmt.Sprintf("Momentum (%dd)", params.LookbackPeriod)
		if params.UseVolumeConfirmation {
			name += " + Volume"
		}
	case StrategyMeanReversion:
		signals = meanReversionSignals(prices.Closes(), params.Window, params.NumStd)
		name = fmt.Sprintf("Mean Reversion (%dd)", params.Window)
	case StrategyMACrossover:
		signals = maCrossoverSignals(prices.Closes(), params.ShortWindow, params.LongWindow)
		name = fmt.Sprintf("MA Crossover (%d/%d)", params.ShortWindow, params.LongWindow)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownStrategy, strategy)
	}

	strategyReturns := positionReturns(prices, signals)
	applyTransactionCosts(strategyReturns, signals, params.TransactionCost+params.Slippage)

	result = calculateResult(name, strategyReturns, signals, params)
	e.log.WithFields(logrus.Fields{
		"strategy":     name,
		"bars":         len(prices),
		"total_return": result.TotalReturn,
		"num_trades":   result.NumTrades,
	}).Debug("Backtest complete")
	return result, nil
}

// Compare runs several strategies over the same price window. A failing
// strategy is logged and skipped; it never aborts the batch.
func (e *Engine) Compare(prices models.PriceSeries, configs map[StrategyType]Params) map[string]*models.StrategyResult {
	results := make(map[string]*models.StrategyResult, len(configs))
	for strategy, params := range configs {
		result, err := e.Run(strategy, prices, params)
		if err != nil {
			e.log.WithError(err).WithField("strategy", strategy).Warn("Skipping failed strategy")
			continue
		}
		results[result.StrategyName] = result
	}
	return results
}

// positionReturns multiplies per-bar asset returns by the held position.
// The first bar has no defined return and contributes 0.
func positionReturns(prices models.PriceSeries, signals []int) []float64 {
	returns := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1].Close
		if prev == 0 {
			continue
		}
		returns[i] = (prices[i].Close/prev - 1) * float64(signals[i])
	}
	return returns
}

// applyTransactionCosts deducts a flat cost fraction on every bar where
// the position changes, in place
func applyTransactionCosts(returns []float64, signals []int, costRate float64) {
	for i := 1; i < len(signals); i++ {
		if signals[i] != signals[i-1] {
			returns[i] -= costRate
		}
	}
}
