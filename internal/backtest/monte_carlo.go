package backtest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yourusername/quantdesk/internal/models"
)

// MonteCarloConfig configures the bootstrap resampling run
type MonteCarloConfig struct {
	Iterations int
	Seed       int64
}

// MonteCarloResult summarizes the distribution of resampled outcomes.
// Returns are fractions of starting capital, not percentages.
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	Horizon             int                `json:"horizon_days"`
	MeanReturn          float64            `json:"mean_return"`
	StdReturn           float64            `json:"std_return"`
	MedianReturn        float64            `json:"median_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfHalf   float64            `json:"probability_of_halving"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
}

// RunMonteCarlo bootstraps the daily returns of a completed backtest:
// each iteration resamples the observed returns with replacement over
// the same horizon and compounds them into a final wealth multiple.
func RunMonteCarlo(result *models.StrategyResult, cfg MonteCarloConfig) (MonteCarloResult, error) {
	returns := dailyReturns(result.CumulativeReturns)
	if len(returns) == 0 {
		return MonteCarloResult{}, fmt.Errorf("backtest has no daily returns to resample")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)
	for i := 0; i < cfg.Iterations; i++ {
		wealth := 1.0
		for range returns {
			wealth *= 1 + returns[rng.Intn(len(returns))]
		}
		distribution[i] = wealth - 1
	}

	mean, std := meanStd(distribution)
	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		Horizon:             len(returns),
		MeanReturn:          mean,
		StdReturn:           std,
		MedianReturn:        percentile(distribution, 0.5),
		VaR95:               percentile(distribution, 0.05),
		VaR99:               percentile(distribution, 0.01),
		ProbabilityOfProfit: probabilityAbove(distribution, 0),
		ProbabilityOfHalf:   probabilityAtOrBelow(distribution, -0.5),
		ConfidenceIntervals: confidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
	}, nil
}

// dailyReturns recovers per-bar returns from the wealth curve
func dailyReturns(cumulative []float64) []float64 {
	if len(cumulative) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(cumulative)-1)
	for i := 1; i < len(cumulative); i++ {
		if cumulative[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, cumulative[i]/cumulative[i-1]-1)
	}
	return returns
}

// confidenceIntervals reports the central interval width per level
func confidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64, len(levels))
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[fmt.Sprintf("%.0f%%", level*100)] = high - low
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func probabilityAtOrBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
