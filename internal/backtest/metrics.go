package backtest

import (
	"math"

	"github.com/yourusername/quantdesk/internal/analytics"
	"github.com/yourusername/quantdesk/internal/models"
)

// calculateResult computes the full performance report for one strategy
// run. Scalar statistics are rounded to 2 decimals; the cumulative wealth
// curve and the signal series are returned unrounded.
func calculateResult(name string, strategyReturns []float64, signals []int, params Params) *models.StrategyResult {
	cumulative := make([]float64, len(strategyReturns))
	wealth := 1.0
	for i, r := range strategyReturns {
		wealth *= 1 + r
		cumulative[i] = wealth
	}

	totalReturn := 0.0
	if len(cumulative) > 0 {
		totalReturn = (cumulative[len(cumulative)-1] - 1) * 100
	}
	years := float64(len(strategyReturns)) / float64(params.PeriodsPerYear)
	annualized := 0.0
	if years > 0 {
		annualized = (math.Pow(1+totalReturn/100, 1/years) - 1) * 100
	}

	volatility := analytics.Volatility(strategyReturns, 0, params.PeriodsPerYear)

	excess := annualized/100 - params.RiskFreeRate
	sharpe := 0.0
	if volatility > 0 {
		sharpe = excess / (volatility / 100)
	}

	downside := downsideDeviation(strategyReturns) * math.Sqrt(float64(params.PeriodsPerYear))
	sortino := 0.0
	if downside > 0 {
		sortino = excess / downside
	}

	maxDrawdown, _, _ := analytics.MaxDrawdown(strategyReturns)
	calmar := 0.0
	if maxDrawdown > 0 {
		calmar = (annualized / 100) / (maxDrawdown / 100)
	}

	numTrades := countTransitions(signals) / 2

	winRate := 0.0
	profitFactor := 0.0
	outcome := models.ProfitFactorNoTrades
	if numTrades > 0 {
		tradeReturns := closedTradeReturns(cumulative, signals)
		wins, grossProfit, grossLoss := 0, 0.0, 0.0
		for _, r := range tradeReturns {
			if r > 0 {
				wins++
				grossProfit += r
			} else if r < 0 {
				grossLoss += math.Abs(r)
			}
		}
		if len(tradeReturns) > 0 {
			winRate = float64(wins) / float64(len(tradeReturns)) * 100
		}
		switch {
		case grossLoss > 0:
			profitFactor = grossProfit / grossLoss
			outcome = models.ProfitFactorDefined
		case grossProfit > 0:
			profitFactor = models.ProfitFactorSentinel
			outcome = models.ProfitFactorNoLosses
		default:
			outcome = models.ProfitFactorDefined
		}
	}

	return &models.StrategyResult{
		StrategyName:        name,
		TotalReturn:         models.Round2(totalReturn),
		AnnualizedReturn:    models.Round2(annualized),
		Volatility:          models.Round2(volatility),
		SharpeRatio:         models.Round2(sharpe),
		SortinoRatio:        models.Round2(sortino),
		CalmarRatio:         models.Round2(calmar),
		MaxDrawdown:         models.Round2(maxDrawdown),
		WinRate:             models.Round2(winRate),
		ProfitFactor:        models.Round2(profitFactor),
		ProfitFactorOutcome: outcome,
		NumTrades:           numTrades,
		CumulativeReturns:   cumulative,
		Signals:             signals,
	}
}

// countTransitions counts bars where the position differs from the
// previous bar. A round trip is two transitions.
func countTransitions(signals []int) int {
	transitions := 0
	for i := 1; i < len(signals); i++ {
		if signals[i] != signals[i-1] {
			transitions++
		}
	}
	return transitions
}

// closedTradeReturns walks the signal series pairing each position entry
// with the next flat bar. A position still open at the end of the window
// is not counted; a direct long/short flip keeps the trade open.
func closedTradeReturns(cumulative []float64, signals []int) []float64 {
	tradeReturns := make([]float64, 0)
	inTrade := false
	entryValue := 1.0

	for i, sig := range signals {
		if sig != 0 && !inTrade {
			inTrade = true
			if i > 0 {
				entryValue = cumulative[i-1]
			} else {
				entryValue = 1.0
			}
		} else if sig == 0 && inTrade {
			inTrade = false
			if entryValue != 0 {
				tradeReturns = append(tradeReturns, (cumulative[i]-entryValue)/entryValue)
			}
		}
	}
	return tradeReturns
}

func downsideDeviation(returns []float64) float64 {
	negatives := make([]float64, 0)
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) < 2 {
		return 0
	}
	m := 0.0
	for _, r := range negatives {
		m += r
	}
	m /= float64(len(negatives))
	variance := 0.0
	for _, r := range negatives {
		diff := r - m
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(negatives)-1))
}
