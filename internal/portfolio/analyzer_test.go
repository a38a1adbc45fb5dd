package portfolio

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quantdesk/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// tableFromReturns builds an aligned price table by compounding the given
// per-asset return sequences from a base price of 100
func tableFromReturns(returns map[string][]float64, start time.Time) *models.AlignedTable {
	series := make(map[string]models.PriceSeries, len(returns))
	for asset, rs := range returns {
		prices := make(models.PriceSeries, len(rs)+1)
		price := 100.0
		prices[0] = models.Bar{Date: start, Close: price}
		for i, r := range rs {
			price *= 1 + r
			prices[i+1] = models.Bar{Date: start.AddDate(0, 0, i+1), Close: price}
		}
		series[asset] = prices
	}
	return models.AlignSeries(series)
}

func defaultTestOptions() Options {
	return Options{Seed: 42}
}

func TestEqualWeights(t *testing.T) {
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, -0.01},
		"BBB": {0.02, -0.02},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	weights := a.EqualWeights()
	assert.InDelta(t, 0.5, weights["AAA"], 1e-9)
	assert.InDelta(t, 0.5, weights["BBB"], 1e-9)
}

func TestRiskParityWeightsInverseVolatility(t *testing.T) {
	// BBB runs at exactly twice the volatility of AAA
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, -0.01, 0.01, -0.01},
		"BBB": {0.02, -0.02, 0.02, -0.02},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	weights, fallback := a.RiskParityWeights()
	require.False(t, fallback)
	assert.InDelta(t, 2.0/3.0, weights["AAA"], 1e-3)
	assert.InDelta(t, 1.0/3.0, weights["BBB"], 1e-3)
}

func TestRiskParityZeroVolatilityFallsBack(t *testing.T) {
	table := tableFromReturns(map[string][]float64{
		"AAA":  {0.01, -0.01, 0.01},
		"FLAT": {0, 0, 0},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	weights, fallback := a.RiskParityWeights()
	assert.True(t, fallback)
	assert.InDelta(t, 0.5, weights["AAA"], 1e-9)
}

func TestMinVarianceUncorrelatedEqualVariance(t *testing.T) {
	// zero correlation and identical variance puts the optimum at 50/50
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, -0.01, 0.01, -0.01},
		"BBB": {0.01, 0.01, -0.01, -0.01},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	weights, fallback := a.MinVarianceWeights()
	require.False(t, fallback)
	assert.InDelta(t, 0.5, weights["AAA"], 1e-3)
	assert.InDelta(t, 0.5, weights["BBB"], 1e-3)
}

func TestMinVarianceSingularMatrixFallsBack(t *testing.T) {
	// perfectly negatively correlated assets make the covariance matrix
	// singular; the optimizer hands back equal weights instead of failing
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.02, -0.02, 0.02, -0.02},
		"BBB": {-0.02, 0.02, -0.02, 0.02},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	weights, fallback := a.MinVarianceWeights()
	assert.True(t, fallback)
	assert.InDelta(t, 0.5, weights["AAA"], 1e-9)
	assert.InDelta(t, 0.5, weights["BBB"], 1e-9)
}

func TestMaxSharpeWeightsDeterministicForSeed(t *testing.T) {
	returns := map[string][]float64{
		"AAA": {0.01, 0.02, -0.005, 0.015, 0.01},
		"BBB": {-0.01, 0.005, 0.01, -0.02, 0.005},
	}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	first := NewAnalyzer(tableFromReturns(returns, start), Options{Seed: 7}, testLogger()).MaxSharpeWeights(500)
	second := NewAnalyzer(tableFromReturns(returns, start), Options{Seed: 7}, testLogger()).MaxSharpeWeights(500)

	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, first.Sum(), 1e-3)
}

func TestGetWeightsUnknownStrategy(t *testing.T) {
	table := tableFromReturns(map[string][]float64{"AAA": {0.01, -0.01}}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	_, _, err := a.GetWeights(WeightingStrategy("kelly"), nil)
	assert.ErrorIs(t, err, models.ErrUnknownWeighting)
}

func TestGetWeightsCustomNormalized(t *testing.T) {
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, -0.01},
		"BBB": {0.02, -0.02},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	weights, fallback, err := a.GetWeights(CustomWeights, models.Weights{"AAA": 2, "BBB": 2})
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.InDelta(t, 0.5, weights["AAA"], 1e-9)
	assert.InDelta(t, 0.5, weights["BBB"], 1e-9)
}

func TestDailyRebalanceOffsettingAssets(t *testing.T) {
	// +1% and -1% every bar cancel exactly under daily rebalancing
	table := tableFromReturns(map[string][]float64{
		"UP":   {0.01, 0.01, 0.01, 0.01},
		"DOWN": {-0.01, -0.01, -0.01, -0.01},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	report, err := a.Analyze(EqualWeight, nil, RebalanceDaily)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, report.TotalReturn, 1e-9)
	assert.InDelta(t, 0.0, report.Volatility, 1e-9)
	assert.InDelta(t, 0.0, report.SharpeRatio, 1e-9)
}

func TestIdenticalAssetsMatchIndividualMetrics(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.02, -0.01, 0.015}
	table := tableFromReturns(map[string][]float64{
		"AAA": returns,
		"BBB": returns,
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	report, err := a.Analyze(EqualWeight, nil, RebalanceDaily)
	require.NoError(t, err)
	individual := a.IndividualMetrics()["AAA"]

	assert.InDelta(t, individual.TotalReturn, report.TotalReturn, 1e-9)
	assert.InDelta(t, individual.Volatility, report.Volatility, 1e-9)
	assert.InDelta(t, individual.MaxDrawdown, report.MaxDrawdown, 1e-9)
}

func TestCorrelationMatrixDiagonal(t *testing.T) {
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, -0.02, 0.015, 0.005},
		"BBB": {-0.005, 0.01, -0.01, 0.02},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	matrix := a.CorrelationMatrix()
	assert.InDelta(t, 1.0, matrix["AAA"]["AAA"], 1e-9)
	assert.InDelta(t, 1.0, matrix["BBB"]["BBB"], 1e-9)
	assert.Equal(t, matrix["AAA"]["BBB"], matrix["BBB"]["AAA"])
}

func TestAnalyzeInsufficientData(t *testing.T) {
	table := models.AlignSeries(map[string]models.PriceSeries{})
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	_, err := a.Analyze(EqualWeight, nil, RebalanceDaily)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestRebalanceBarsMarkMonthEnds(t *testing.T) {
	// 2024-01-30 .. 2024-02-02: one month boundary plus the final bar
	start := time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, 0.01, 0.01, 0.01},
	}, start)
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	marks := a.rebalanceBars(RebalanceMonthly)
	require.Len(t, marks, 4)
	// return rows cover Jan 30, Jan 31, Feb 1, Feb 2
	assert.Equal(t, []bool{false, true, false, true}, marks)
}

func TestTurnoverCostReducesReturnAtRebalance(t *testing.T) {
	returns := map[string][]float64{
		"AAA": {0.05, 0.05, 0.05, 0.05, 0.05, 0.05},
		"BBB": {-0.02, -0.02, -0.02, -0.02, -0.02, -0.02},
	}
	start := time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)

	free := NewAnalyzer(tableFromReturns(returns, start), Options{Seed: 1}, testLogger())
	costed := NewAnalyzer(tableFromReturns(returns, start), Options{Seed: 1, TurnoverCostRate: 0.001}, testLogger())

	freeReport, err := free.Analyze(EqualWeight, nil, RebalanceMonthly)
	require.NoError(t, err)
	costedReport, err := costed.Analyze(EqualWeight, nil, RebalanceMonthly)
	require.NoError(t, err)

	assert.Less(t, costedReport.TotalReturn, freeReport.TotalReturn)
}

func TestEfficientFrontierPoints(t *testing.T) {
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, 0.02, -0.005, 0.015},
		"BBB": {-0.01, 0.005, 0.01, -0.02},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, Options{Seed: 11}, testLogger())

	points := a.EfficientFrontier(50)
	require.Len(t, points, 50)
	for _, p := range points {
		assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-3)
		assert.GreaterOrEqual(t, p.Volatility, 0.0)
	}
}

func TestCompareWithBenchmarkAgainstSelf(t *testing.T) {
	table := tableFromReturns(map[string][]float64{
		"AAA": {0.01, -0.005, 0.02, -0.01, 0.015},
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	a := NewAnalyzer(table, defaultTestOptions(), testLogger())

	report, err := a.Analyze(EqualWeight, nil, RebalanceDaily)
	require.NoError(t, err)

	// the benchmark is the portfolio's own return stream minus its first bar
	bench := make([]float64, 0)
	for i := 1; i < len(report.CumulativeReturns); i++ {
		bench = append(bench, report.CumulativeReturns[i]/report.CumulativeReturns[i-1]-1)
	}
	comparison := a.CompareWithBenchmark(report, bench)

	assert.InDelta(t, 1.0, comparison.Beta, 1e-6)
	assert.InDelta(t, 0.0, comparison.TrackingError, 1e-6)
	assert.InDelta(t, 0.0, comparison.InformationRatio, 1e-6)
}
