package portfolio

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quantdesk/internal/analytics"
	"github.com/yourusername/quantdesk/internal/models"
)

// WeightingStrategy selects how portfolio weights are assigned
type WeightingStrategy string

const (
	EqualWeight   WeightingStrategy = "equal_weight"
	CustomWeights WeightingStrategy = "custom_weights"
	RiskParity    WeightingStrategy = "risk_parity"
	MinVariance   WeightingStrategy = "min_variance"
	MaxSharpe     WeightingStrategy = "max_sharpe"
)

// RebalanceFrequency selects how often drifted weights snap back to target
type RebalanceFrequency string

const (
	RebalanceDaily     RebalanceFrequency = "daily"
	RebalanceWeekly    RebalanceFrequency = "weekly"
	RebalanceMonthly   RebalanceFrequency = "monthly"
	RebalanceQuarterly RebalanceFrequency = "quarterly"
)

// Options tunes the analyzer. Zero values fall back to defaults.
type Options struct {
	RiskFreeRate        float64
	PeriodsPerYear      int
	MaxSharpeIterations int
	TurnoverCostRate    float64 // charged on the L1 weight distance at each rebalance
	Seed                int64
}

func (o Options) withDefaults() Options {
	if o.RiskFreeRate == 0 {
		o.RiskFreeRate = 0.04
	}
	if o.PeriodsPerYear == 0 {
		o.PeriodsPerYear = 252
	}
	if o.MaxSharpeIterations == 0 {
		o.MaxSharpeIterations = 10000
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// AssetMetrics is the per-asset performance breakdown
type AssetMetrics struct {
	TotalReturn       float64   `json:"total_return"`
	AnnualizedReturn  float64   `json:"annualized_return"`
	Volatility        float64   `json:"volatility"`
	SharpeRatio       float64   `json:"sharpe_ratio"`
	MaxDrawdown       float64   `json:"max_drawdown"`
	CumulativeReturns []float64 `json:"cumulative_returns"`
}

// Analyzer computes portfolio statistics over an aligned close-price table
type Analyzer struct {
	table *models.AlignedTable
	// per-bar return rows in table asset order, first bar dropped
	returnRows [][]float64
	opts       Options
	rng        *rand.Rand
	log        *logrus.Logger
}

// NewAnalyzer builds an analyzer from aligned prices
func NewAnalyzer(table *models.AlignedTable, opts Options, log *logrus.Logger) *Analyzer {
	opts = opts.withDefaults()
	return &Analyzer{
		table:      table,
		returnRows: table.ReturnRows(),
		opts:       opts,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		log:        log,
	}
}

// Assets returns the asset symbols in column order
func (a *Analyzer) Assets() []string {
	return a.table.Assets
}

func (a *Analyzer) assetReturnColumn(idx int) []float64 {
	col := make([]float64, len(a.returnRows))
	for i, row := range a.returnRows {
		col[i] = row[idx]
	}
	return col
}

// CorrelationMatrix is the pairwise correlation of asset returns
func (a *Analyzer) CorrelationMatrix() map[string]map[string]float64 {
	n := a.table.NumAssets()
	cols := make([][]float64, n)
	for i := 0; i < n; i++ {
		cols[i] = a.assetReturnColumn(i)
	}

	matrix := make(map[string]map[string]float64, n)
	for i, rowAsset := range a.table.Assets {
		matrix[rowAsset] = make(map[string]float64, n)
		for j, colAsset := range a.table.Assets {
			matrix[rowAsset][colAsset] = models.Round4(correlation(cols[i], cols[j]))
		}
	}
	return matrix
}

// CovarianceMatrix is the sample covariance of asset returns in column
// order, annualized when requested
func (a *Analyzer) CovarianceMatrix(annualized bool) [][]float64 {
	n := a.table.NumAssets()
	cols := make([][]float64, n)
	for i := 0; i < n; i++ {
		cols[i] = a.assetReturnColumn(i)
	}

	factor := 1.0
	if annualized {
		factor = float64(a.opts.PeriodsPerYear)
	}
	matrix := make([][]float64, n)
	for i := 0; i < n; i++ {
		matrix[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			matrix[i][j] = covariance(cols[i], cols[j]) * factor
		}
	}
	return matrix
}

// EqualWeights assigns 1/n to every asset
func (a *Analyzer) EqualWeights() models.Weights {
	n := a.table.NumAssets()
	weights := make(models.Weights, n)
	for _, asset := range a.table.Assets {
		weights[asset] = models.Round4(1.0 / float64(n))
	}
	return weights
}

// RiskParityWeights weights assets by inverse volatility. An asset with
// zero volatility makes the scheme undefined; equal weights are returned
// with the fallback flag set.
func (a *Analyzer) RiskParityWeights() (models.Weights, bool) {
	n := a.table.NumAssets()
	invVol := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		vol := stddev(a.assetReturnColumn(i)) * math.Sqrt(float64(a.opts.PeriodsPerYear))
		if vol == 0 {
			a.log.WithField("asset", a.table.Assets[i]).Warn("Zero volatility asset, falling back to equal weights")
			return a.EqualWeights(), true
		}
		invVol[i] = 1 / vol
		total += invVol[i]
	}

	weights := make(models.Weights, n)
	for i, asset := range a.table.Assets {
		weights[asset] = models.Round4(invVol[i] / total)
	}
	return weights, false
}

// GetWeights resolves a weighting strategy to concrete weights. The bool
// reports whether an optimizer fallback was applied.
func (a *Analyzer) GetWeights(strategy WeightingStrategy, custom models.Weights) (models.Weights, bool, error) {
	switch strategy {
	case EqualWeight:
		return a.EqualWeights(), false, nil
	case RiskParity:
		weights, fallback := a.RiskParityWeights()
		return weights, fallback, nil
	case MinVariance:
		weights, fallback := a.MinVarianceWeights()
		return weights, fallback, nil
	case MaxSharpe:
		return a.MaxSharpeWeights(a.opts.MaxSharpeIterations), false, nil
	case CustomWeights:
		if len(custom) == 0 {
			return a.EqualWeights(), false, nil
		}
		normalized := custom.Normalized()
		if len(normalized) == 0 {
			return nil, false, fmt.Errorf("custom weights must sum to a positive value")
		}
		weights := make(models.Weights, len(normalized))
		for asset, w := range normalized {
			weights[asset] = models.Round4(w)
		}
		return weights, false, nil
	default:
		return nil, false, fmt.Errorf("%w: %s", models.ErrUnknownWeighting, strategy)
	}
}

// PortfolioReturns simulates the weighted portfolio bar by bar. Daily
// rebalancing is a fixed dot product; longer frequencies let weights
// drift with returns and snap back on the last bar of each period, paying
// the turnover cost on the traded weight distance.
func (a *Analyzer) PortfolioReturns(weights models.Weights, freq RebalanceFrequency) []float64 {
	target := make([]float64, a.table.NumAssets())
	for i, asset := range a.table.Assets {
		target[i] = weights[asset]
	}

	out := make([]float64, len(a.returnRows))
	if freq == RebalanceDaily {
		for i, row := range a.returnRows {
			out[i] = dot(target, row)
		}
		return out
	}

	rebalance := a.rebalanceBars(freq)
	current := append([]float64{}, target...)
	for i, row := range a.returnRows {
		out[i] = dot(current, row)

		// drift with the bar's returns
		sum := 0.0
		for j := range current {
			current[j] *= 1 + row[j]
			sum += current[j]
		}
		if sum != 0 {
			for j := range current {
				current[j] /= sum
			}
		}

		if rebalance[i] {
			if a.opts.TurnoverCostRate > 0 {
				turnover := 0.0
				for j := range current {
					turnover += math.Abs(current[j] - target[j])
				}
				out[i] -= a.opts.TurnoverCostRate * turnover
			}
			copy(current, target)
		}
	}
	return out
}

// rebalanceBars marks return rows that close out a week, month or quarter
func (a *Analyzer) rebalanceBars(freq RebalanceFrequency) []bool {
	// return row i corresponds to Index[i+1]
	dates := a.table.Index[1:]
	marks := make([]bool, len(dates))
	for i := range dates {
		if i == len(dates)-1 {
			marks[i] = true
			continue
		}
		marks[i] = periodKey(dates[i], freq) != periodKey(dates[i+1], freq)
	}
	return marks
}

func periodKey(t time.Time, freq RebalanceFrequency) string {
	switch freq {
	case RebalanceWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case RebalanceQuarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return fmt.Sprintf("%d-%02d", t.Year(), t.Month())
	}
}

// Analyze resolves weights, simulates the portfolio and reports the full
// statistics battery
func (a *Analyzer) Analyze(strategy WeightingStrategy, custom models.Weights, freq RebalanceFrequency) (*models.PortfolioReport, error) {
	if a.table.NumAssets() == 0 || len(a.returnRows) == 0 {
		return nil, models.ErrInsufficientData
	}
	weights, fallback, err := a.GetWeights(strategy, custom)
	if err != nil {
		return nil, err
	}

	portReturns := a.PortfolioReturns(weights, freq)
	cumulative := make([]float64, len(portReturns))
	wealth := 1.0
	for i, r := range portReturns {
		wealth *= 1 + r
		cumulative[i] = wealth
	}

	totalReturn := (cumulative[len(cumulative)-1] - 1) * 100
	years := float64(len(portReturns)) / float64(a.opts.PeriodsPerYear)
	annualized := 0.0
	if years > 0 {
		annualized = (math.Pow(1+totalReturn/100, 1/years) - 1) * 100
	}
	volatility := stddev(portReturns) * math.Sqrt(float64(a.opts.PeriodsPerYear)) * 100

	sharpe := 0.0
	if volatility > 0 {
		sharpe = (annualized/100 - a.opts.RiskFreeRate) / (volatility / 100)
	}
	maxDrawdown, _, _ := analytics.MaxDrawdown(portReturns)

	// ratio of the weighted average of standalone volatilities to the
	// realized portfolio volatility
	weightedVol := 0.0
	for i, asset := range a.table.Assets {
		assetVol := stddev(a.assetReturnColumn(i)) * math.Sqrt(float64(a.opts.PeriodsPerYear))
		weightedVol += weights[asset] * assetVol
	}
	diversification := 1.0
	if volatility > 0 {
		diversification = weightedVol / (volatility / 100)
	}

	return &models.PortfolioReport{
		TotalReturn:          models.Round2(totalReturn),
		AnnualizedReturn:     models.Round2(annualized),
		Volatility:           models.Round2(volatility),
		SharpeRatio:          models.Round2(sharpe),
		MaxDrawdown:          models.Round2(maxDrawdown),
		DiversificationRatio: models.Round2(diversification),
		Weights:              weights,
		FallbackApplied:      fallback,
		CorrelationMatrix:    a.CorrelationMatrix(),
		CumulativeReturns:    cumulative,
	}, nil
}

// IndividualMetrics reports standalone performance for every asset
func (a *Analyzer) IndividualMetrics() map[string]AssetMetrics {
	out := make(map[string]AssetMetrics, a.table.NumAssets())
	for i, asset := range a.table.Assets {
		returns := a.assetReturnColumn(i)
		cumulative := make([]float64, len(returns))
		wealth := 1.0
		for j, r := range returns {
			wealth *= 1 + r
			cumulative[j] = wealth
		}

		totalReturn := 0.0
		if len(cumulative) > 0 {
			totalReturn = (cumulative[len(cumulative)-1] - 1) * 100
		}
		years := float64(len(returns)) / float64(a.opts.PeriodsPerYear)
		annualized := 0.0
		if years > 0 {
			annualized = (math.Pow(1+totalReturn/100, 1/years) - 1) * 100
		}
		vol := stddev(returns) * math.Sqrt(float64(a.opts.PeriodsPerYear)) * 100
		sharpe := 0.0
		if vol > 0 {
			sharpe = (annualized/100 - a.opts.RiskFreeRate) / (vol / 100)
		}
		maxDD, _, _ := analytics.MaxDrawdown(returns)

		out[asset] = AssetMetrics{
			TotalReturn:       models.Round2(totalReturn),
			AnnualizedReturn:  models.Round2(annualized),
			Volatility:        models.Round2(vol),
			SharpeRatio:       models.Round2(sharpe),
			MaxDrawdown:       models.Round2(maxDD),
			CumulativeReturns: cumulative,
		}
	}
	return out
}

// CompareWithBenchmark relates an analyzed portfolio to a benchmark
// return series over their overlapping window
func (a *Analyzer) CompareWithBenchmark(report *models.PortfolioReport, benchmarkReturns []float64) models.BenchmarkComparison {
	portReturns := make([]float64, 0, len(report.CumulativeReturns))
	for i := 1; i < len(report.CumulativeReturns); i++ {
		prev := report.CumulativeReturns[i-1]
		if prev == 0 {
			portReturns = append(portReturns, 0)
			continue
		}
		portReturns = append(portReturns, report.CumulativeReturns[i]/prev-1)
	}

	n := len(portReturns)
	if len(benchmarkReturns) < n {
		n = len(benchmarkReturns)
	}
	if n == 0 {
		return models.BenchmarkComparison{Beta: 1}
	}
	portReturns = portReturns[:n]
	bench := benchmarkReturns[:n]

	active := make([]float64, n)
	for i := 0; i < n; i++ {
		active[i] = portReturns[i] - bench[i]
	}
	trackingError := stddev(active) * math.Sqrt(float64(a.opts.PeriodsPerYear))

	benchWealth := 1.0
	for _, r := range bench {
		benchWealth *= 1 + r
	}
	benchTotal := (benchWealth - 1) * 100
	alpha := report.AnnualizedReturn - benchTotal

	beta := 1.0
	if v := variance(bench); v > 0 {
		beta = covariance(portReturns, bench) / v
	}
	informationRatio := 0.0
	if trackingError > 0 {
		informationRatio = alpha / (trackingError * 100)
	}

	return models.BenchmarkComparison{
		Alpha:            models.Round2(alpha),
		Beta:             models.Round2(beta),
		TrackingError:    models.Round2(trackingError * 100),
		InformationRatio: models.Round2(informationRatio),
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	sum := 0.0
	for _, v := range values {
		diff := v - m
		sum += diff * diff
	}
	return sum / float64(len(values)-1)
}

func stddev(values []float64) float64 {
	return math.Sqrt(variance(values))
}

func covariance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	ma := meanOf(a[:n])
	mb := meanOf(b[:n])
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (a[i] - ma) * (b[i] - mb)
	}
	return sum / float64(n-1)
}

func correlation(a, b []float64) float64 {
	sa := stddev(a)
	sb := stddev(b)
	if sa == 0 || sb == 0 {
		return 0
	}
	return covariance(a, b) / (sa * sb)
}
