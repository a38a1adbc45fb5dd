package analytics

import (
	"math"

	"github.com/yourusername/quantdesk/internal/models"
)

// Options controls annualization and tail-risk parameters.
// Zero values fall back to the package defaults.
type Options struct {
	RiskFreeRate     float64 // annual, e.g. 0.04
	PeriodsPerYear   int     // 252 for daily bars
	ConfidenceLevel  float64 // VaR/CVaR confidence, e.g. 0.95
	VolatilityWindow int     // trailing window for volatility, 0 = full series
}

const (
	DefaultRiskFreeRate    = 0.04
	DefaultPeriodsPerYear  = 252
	DefaultConfidenceLevel = 0.95
)

func (o Options) withDefaults() Options {
	if o.RiskFreeRate == 0 {
		o.RiskFreeRate = DefaultRiskFreeRate
	}
	if o.PeriodsPerYear == 0 {
		o.PeriodsPerYear = DefaultPeriodsPerYear
	}
	if o.ConfidenceLevel == 0 {
		o.ConfidenceLevel = DefaultConfidenceLevel
	}
	return o
}

// SimpleReturns computes period-over-period simple returns from a price
// series. The first period is dropped; a zero previous close yields 0.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}

// LogReturns computes continuously compounded returns.
// Non-positive price ratios yield 0 for that period.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

// TotalReturn is the overall percentage change from first to last price
func TotalReturn(prices []float64) float64 {
	if len(prices) < 2 || prices[0] == 0 {
		return 0
	}
	return (prices[len(prices)-1]/prices[0] - 1) * 100
}

// AnnualizedReturn converts a total percentage return over n periods into
// an annual percentage. Returns 0 when n is 0.
func AnnualizedReturn(totalReturnPct float64, numPeriods, periodsPerYear int) float64 {
	if numPeriods == 0 || periodsPerYear == 0 {
		return 0
	}
	years := float64(numPeriods) / float64(periodsPerYear)
	return (math.Pow(1+totalReturnPct/100, 1/years) - 1) * 100
}

// Volatility is the annualized standard deviation of returns, in percent.
// window > 0 restricts the estimate to the trailing window of returns.
func Volatility(returns []float64, window, periodsPerYear int) float64 {
	if window > 0 && len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	return sampleStddev(returns) * math.Sqrt(float64(periodsPerYear)) * 100
}

// SharpeRatio is the annualized excess return per unit of volatility.
// Zero volatility yields 0, never a division error.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}
	vol := sampleStddev(returns) * math.Sqrt(float64(periodsPerYear))
	if vol == 0 {
		return 0
	}
	excess := mean(returns)*float64(periodsPerYear) - riskFreeRate
	return excess / vol
}

// SortinoRatio penalizes only downside deviation. A series with no
// negative returns yields +Inf; zero downside deviation among negatives
// yields 0.
func SortinoRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}
	negatives := make([]float64, 0)
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return math.Inf(1)
	}
	downside := sampleStddev(negatives) * math.Sqrt(float64(periodsPerYear))
	if downside == 0 {
		return 0
	}
	excess := mean(returns)*float64(periodsPerYear) - riskFreeRate
	return excess / downside
}

// MaxDrawdown walks the compounded wealth curve and returns the largest
// peak-to-trough decline as a positive percent, with the peak and trough
// indices into the returns slice. The peak index never exceeds the trough.
func MaxDrawdown(returns []float64) (float64, int, int) {
	if len(returns) == 0 {
		return 0, 0, 0
	}
	wealth := make([]float64, len(returns))
	cum := 1.0
	for i, r := range returns {
		cum *= 1 + r
		wealth[i] = cum
	}

	runMax := wealth[0]
	worst := 0.0
	troughIdx := 0
	for i, v := range wealth {
		if v > runMax {
			runMax = v
		}
		if runMax == 0 {
			continue
		}
		dd := (v - runMax) / runMax
		if dd < worst {
			worst = dd
			troughIdx = i
		}
	}

	peakIdx := 0
	peakVal := math.Inf(-1)
	for i := 0; i < troughIdx; i++ {
		if wealth[i] > peakVal {
			peakVal = wealth[i]
			peakIdx = i
		}
	}
	return math.Abs(worst) * 100, peakIdx, troughIdx
}

// CalmarRatio relates annualized return to maximum drawdown, both in
// percent. Zero drawdown yields 0.
func CalmarRatio(annualizedReturnPct, maxDrawdownPct float64) float64 {
	if maxDrawdownPct == 0 {
		return 0
	}
	return annualizedReturnPct / maxDrawdownPct
}

// ValueAtRisk is the historical VaR at the given confidence level,
// reported as a positive percent loss.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return math.Abs(percentile(returns, 1-confidence)) * 100
}

// ConditionalVaR averages the returns at or below the VaR threshold,
// reported as a positive percent loss.
func ConditionalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	threshold := percentile(returns, 1-confidence)
	tail := make([]float64, 0)
	for _, r := range returns {
		if r <= threshold {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return 0
	}
	return math.Abs(mean(tail)) * 100
}

// Beta regresses asset returns on benchmark returns. Fewer than two
// overlapping observations or a flat benchmark yields the market beta 1.
func Beta(returns, benchmark []float64) float64 {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 2 {
		return 1.0
	}
	benchVar := sampleVariance(benchmark[:n])
	if benchVar == 0 {
		return 1.0
	}
	return sampleCovariance(returns[:n], benchmark[:n]) / benchVar
}

// Alpha is the CAPM excess return over the benchmark, annualized, percent
func Alpha(returns, benchmark []float64, riskFreeRate float64, periodsPerYear int) float64 {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n == 0 {
		return 0
	}
	beta := Beta(returns[:n], benchmark[:n])
	assetAnnual := mean(returns[:n]) * float64(periodsPerYear)
	benchAnnual := mean(benchmark[:n]) * float64(periodsPerYear)
	expected := riskFreeRate + beta*(benchAnnual-riskFreeRate)
	return (assetAnnual - expected) * 100
}

// InformationRatio measures active return per unit of tracking error.
// Zero tracking error yields 0.
func InformationRatio(returns, benchmark []float64, periodsPerYear int) float64 {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n == 0 {
		return 0
	}
	active := make([]float64, n)
	for i := 0; i < n; i++ {
		active[i] = returns[i] - benchmark[i]
	}
	te := sampleStddev(active) * math.Sqrt(float64(periodsPerYear))
	if te == 0 {
		return 0
	}
	return mean(active) * float64(periodsPerYear) / te
}

// Skewness is the bias-adjusted sample skewness (G1). Fewer than three
// observations or a constant series yields 0.
func Skewness(returns []float64) float64 {
	n := float64(len(returns))
	if n < 3 {
		return 0
	}
	m2 := centralMoment(returns, 2)
	if m2 == 0 {
		return 0
	}
	m3 := centralMoment(returns, 3)
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// Kurtosis is the bias-adjusted excess kurtosis (G2). Fewer than four
// observations or a constant series yields 0.
func Kurtosis(returns []float64) float64 {
	n := float64(len(returns))
	if n < 4 {
		return 0
	}
	m2 := centralMoment(returns, 2)
	if m2 == 0 {
		return 0
	}
	m4 := centralMoment(returns, 4)
	return ((n+1)*(m4/(m2*m2)-3) + 6) * (n - 1) / ((n - 2) * (n - 3))
}

// Compute runs the full metrics battery over a price series. benchmark
// may be nil, in which case beta, alpha and information ratio are omitted.
// Degenerate inputs (flat prices, short series) produce zeros, not errors.
func Compute(prices models.PriceSeries, benchmark models.PriceSeries, opts Options) models.MetricsSummary {
	opts = opts.withDefaults()
	closes := prices.Closes()
	returns := prices.Returns()

	summary := models.MetricsSummary{}
	summary.TotalReturn = models.Round2(TotalReturn(closes))
	summary.AnnualizedReturn = models.Round2(AnnualizedReturn(summary.TotalReturn, len(returns), opts.PeriodsPerYear))
	summary.Volatility = models.Round2(Volatility(returns, opts.VolatilityWindow, opts.PeriodsPerYear))
	summary.SharpeRatio = models.Round2(SharpeRatio(returns, opts.RiskFreeRate, opts.PeriodsPerYear))

	sortino := SortinoRatio(returns, opts.RiskFreeRate, opts.PeriodsPerYear)
	if math.IsInf(sortino, 1) {
		sortino = models.ProfitFactorSentinel
	}
	summary.SortinoRatio = models.Round2(sortino)

	ddValue, peakIdx, troughIdx := MaxDrawdown(returns)
	summary.MaxDrawdown.Value = models.Round2(ddValue)
	if len(prices) > troughIdx+1 {
		// returns index i maps to the bar at prices[i+1]
		summary.MaxDrawdown.Peak = prices[peakIdx+1].Date
		summary.MaxDrawdown.Trough = prices[troughIdx+1].Date
	}
	summary.CalmarRatio = models.Round2(CalmarRatio(summary.AnnualizedReturn, summary.MaxDrawdown.Value))

	summary.VaR = models.Round2(ValueAtRisk(returns, opts.ConfidenceLevel))
	summary.CVaR = models.Round2(ConditionalVaR(returns, opts.ConfidenceLevel))
	summary.Skewness = models.Round2(Skewness(returns))
	summary.Kurtosis = models.Round2(Kurtosis(returns))

	best, worst := 0.0, 0.0
	positives, negatives := 0, 0
	for i, r := range returns {
		if i == 0 || r > best {
			best = r
		}
		if i == 0 || r < worst {
			worst = r
		}
		if r > 0 {
			positives++
		} else if r < 0 {
			negatives++
		}
	}
	summary.BestPeriod = models.Round2(best * 100)
	summary.WorstPeriod = models.Round2(worst * 100)
	summary.PositivePeriods = positives
	summary.NegativePeriods = negatives

	if len(benchmark) > 1 {
		benchReturns := benchmark.Returns()
		beta := models.Round2(Beta(returns, benchReturns))
		alpha := models.Round2(Alpha(returns, benchReturns, opts.RiskFreeRate, opts.PeriodsPerYear))
		ir := models.Round2(InformationRatio(returns, benchReturns, opts.PeriodsPerYear))
		summary.Beta = &beta
		summary.Alpha = &alpha
		summary.InformationRatio = &ir
	}
	return summary
}
