package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/yourusername/quantdesk/internal/models"
)

func approxEqual(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (tol %v)", name, got, want, tol)
	}
}

func seriesFromCloses(closes []float64) models.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = models.Bar{Date: start.AddDate(0, 0, i), Close: c, Open: c, High: c, Low: c, Volume: 1000}
	}
	return series
}

func TestSimpleReturns(t *testing.T) {
	returns := SimpleReturns([]float64{100, 110, 121})
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	approxEqual(t, "returns[0]", returns[0], 0.10, 1e-9)
	approxEqual(t, "returns[1]", returns[1], 0.10, 1e-9)
}

func TestSimpleReturnsShortSeries(t *testing.T) {
	if got := SimpleReturns([]float64{100}); len(got) != 0 {
		t.Errorf("expected empty returns for single price, got %v", got)
	}
	if got := SimpleReturns(nil); len(got) != 0 {
		t.Errorf("expected empty returns for nil prices, got %v", got)
	}
}

func TestLogReturns(t *testing.T) {
	returns := LogReturns([]float64{100, 110})
	approxEqual(t, "log return", returns[0], math.Log(1.1), 1e-12)
}

func TestTotalReturn(t *testing.T) {
	approxEqual(t, "total return", TotalReturn([]float64{100, 110, 121}), 21.0, 1e-9)
	approxEqual(t, "flat", TotalReturn([]float64{100, 100}), 0, 1e-12)
	approxEqual(t, "short", TotalReturn([]float64{100}), 0, 1e-12)
}

func TestAnnualizedReturn(t *testing.T) {
	// one full year of periods annualizes to the total itself
	approxEqual(t, "one year", AnnualizedReturn(10.0, 252, 252), 10.0, 1e-9)
	// half a year of 10% compounds to 21%
	approxEqual(t, "half year", AnnualizedReturn(10.0, 126, 252), 21.0, 1e-6)
	approxEqual(t, "zero periods", AnnualizedReturn(10.0, 0, 252), 0, 1e-12)
}

func TestVolatilityConstantReturns(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01, 0.01}
	approxEqual(t, "volatility", Volatility(returns, 0, 252), 0, 1e-12)
}

func TestVolatilityTrailingWindow(t *testing.T) {
	// quiet early stretch, noisy tail; the windowed estimate sees only the tail
	returns := []float64{0, 0, 0, 0, 0, 0.05, -0.05, 0.05, -0.05}
	full := Volatility(returns, 0, 252)
	windowed := Volatility(returns, 4, 252)
	if windowed <= full {
		t.Errorf("windowed volatility %v should exceed full-series %v", windowed, full)
	}
}

func TestSharpeRatioZeroVolatility(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01}
	approxEqual(t, "sharpe", SharpeRatio(returns, 0.04, 252), 0, 1e-12)
}

func TestSharpeRatioSign(t *testing.T) {
	up := []float64{0.01, 0.02, 0.015, 0.012}
	if got := SharpeRatio(up, 0.0, 252); got <= 0 {
		t.Errorf("sharpe for rising series = %v, want > 0", got)
	}
	down := []float64{-0.01, -0.02, -0.015, -0.012}
	if got := SharpeRatio(down, 0.0, 252); got >= 0 {
		t.Errorf("sharpe for falling series = %v, want < 0", got)
	}
}

func TestSortinoRatioNoNegatives(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.03}
	if got := SortinoRatio(returns, 0.04, 252); !math.IsInf(got, 1) {
		t.Errorf("sortino with no losses = %v, want +Inf", got)
	}
}

func TestSortinoRatioSingleNegative(t *testing.T) {
	// one negative return gives zero downside deviation
	returns := []float64{0.01, -0.02, 0.03}
	approxEqual(t, "sortino", SortinoRatio(returns, 0.04, 252), 0, 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	// wealth path 1.1, 0.55, 0.66: a 50% fall from the first peak
	returns := []float64{0.1, -0.5, 0.2}
	dd, peak, trough := MaxDrawdown(returns)
	approxEqual(t, "drawdown", dd, 50.0, 1e-9)
	if peak != 0 || trough != 1 {
		t.Errorf("peak/trough = %d/%d, want 0/1", peak, trough)
	}
}

func TestMaxDrawdownMonotonicRise(t *testing.T) {
	dd, _, _ := MaxDrawdown([]float64{0.01, 0.02, 0.03})
	approxEqual(t, "drawdown", dd, 0, 1e-12)
}

func TestCalmarRatio(t *testing.T) {
	approxEqual(t, "calmar", CalmarRatio(20.0, 10.0), 2.0, 1e-12)
	approxEqual(t, "zero drawdown", CalmarRatio(20.0, 0), 0, 1e-12)
}

func TestValueAtRisk(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.01, 0.03, 0.04}
	// interpolated 5th percentile of the sorted returns
	approxEqual(t, "var", ValueAtRisk(returns, 0.95), 4.4, 1e-9)
}

func TestConditionalVaR(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.01, 0.03, 0.04}
	// only the worst observation sits below the VaR threshold
	approxEqual(t, "cvar", ConditionalVaR(returns, 0.95), 5.0, 1e-9)
}

func TestBetaIdenticalSeries(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, 0.005}
	approxEqual(t, "beta", Beta(returns, returns), 1.0, 1e-9)
}

func TestBetaDegenerateBenchmark(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03}
	flat := []float64{0.01, 0.01, 0.01}
	approxEqual(t, "flat benchmark", Beta(returns, flat), 1.0, 1e-12)
	approxEqual(t, "too short", Beta([]float64{0.01}, []float64{0.01}), 1.0, 1e-12)
}

func TestBetaScaledSeries(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.03, 0.005}
	doubled := make([]float64, len(bench))
	for i, r := range bench {
		doubled[i] = 2 * r
	}
	approxEqual(t, "beta", Beta(doubled, bench), 2.0, 1e-9)
}

func TestInformationRatioIdenticalSeries(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03}
	approxEqual(t, "ir", InformationRatio(returns, returns, 252), 0, 1e-12)
}

func TestSkewnessSymmetric(t *testing.T) {
	approxEqual(t, "skew", Skewness([]float64{-0.01, 0, 0.01}), 0, 1e-9)
	approxEqual(t, "short", Skewness([]float64{0.01, 0.02}), 0, 1e-12)
}

func TestKurtosisShortSeries(t *testing.T) {
	approxEqual(t, "kurtosis", Kurtosis([]float64{0.01, 0.02, 0.03}), 0, 1e-12)
}

func TestComputeRisingPrices(t *testing.T) {
	prices := seriesFromCloses([]float64{100, 101, 102, 103, 104, 105})
	summary := Compute(prices, nil, Options{})

	approxEqual(t, "total return", summary.TotalReturn, 5.0, 1e-9)
	approxEqual(t, "max drawdown", summary.MaxDrawdown.Value, 0, 1e-12)
	if summary.PositivePeriods != 5 || summary.NegativePeriods != 0 {
		t.Errorf("period counts = %d/%d, want 5/0", summary.PositivePeriods, summary.NegativePeriods)
	}
	// no losing periods clamps sortino to the serializable sentinel
	approxEqual(t, "sortino sentinel", summary.SortinoRatio, models.ProfitFactorSentinel, 1e-9)
	if summary.Beta != nil || summary.Alpha != nil {
		t.Error("benchmark metrics should be omitted without a benchmark")
	}
}

func TestComputeWithBenchmark(t *testing.T) {
	prices := seriesFromCloses([]float64{100, 102, 101, 104, 103, 106})
	summary := Compute(prices, prices, Options{})

	if summary.Beta == nil || summary.Alpha == nil || summary.InformationRatio == nil {
		t.Fatal("expected benchmark metrics to be present")
	}
	approxEqual(t, "beta vs self", *summary.Beta, 1.0, 1e-9)
	approxEqual(t, "ir vs self", *summary.InformationRatio, 0, 1e-9)
}

func TestComputeDrawdownDates(t *testing.T) {
	prices := seriesFromCloses([]float64{100, 110, 55, 66})
	summary := Compute(prices, nil, Options{})

	approxEqual(t, "drawdown", summary.MaxDrawdown.Value, 50.0, 1e-9)
	if !summary.MaxDrawdown.Peak.Before(summary.MaxDrawdown.Trough) {
		t.Errorf("peak %v should precede trough %v", summary.MaxDrawdown.Peak, summary.MaxDrawdown.Trough)
	}
	if !summary.MaxDrawdown.Peak.Equal(prices[1].Date) {
		t.Errorf("peak date = %v, want %v", summary.MaxDrawdown.Peak, prices[1].Date)
	}
	if !summary.MaxDrawdown.Trough.Equal(prices[2].Date) {
		t.Errorf("trough date = %v, want %v", summary.MaxDrawdown.Trough, prices[2].Date)
	}
}
