package signals

import (
	"math"
	"testing"
)

func almostEqual(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("warmup values should be NaN")
	}
	almostEqual(t, "sma[2]", out[2], 2.0, 1e-12)
	almostEqual(t, "sma[4]", out[4], 4.0, 1e-12)
}

func TestEMAFlatSeries(t *testing.T) {
	out := EMA([]float64{5, 5, 5, 5}, 10)
	for _, v := range out {
		almostEqual(t, "ema", v, 5.0, 1e-12)
	}
}

func TestEMASpanConvention(t *testing.T) {
	// span 3 gives alpha 0.5, seeded from the first value
	out := EMA([]float64{1, 2}, 3)
	almostEqual(t, "ema[0]", out[0], 1.0, 1e-12)
	almostEqual(t, "ema[1]", out[1], 1.5, 1e-12)
}

func TestRSIBounds(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := RSI(rising, 3)
	if !math.IsNaN(out[2]) {
		t.Error("RSI should be NaN during warmup")
	}
	almostEqual(t, "all gains", out[len(out)-1], 100.0, 1e-9)

	falling := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	out = RSI(falling, 3)
	almostEqual(t, "all losses", out[len(out)-1], 0.0, 1e-9)
}

func TestRSIShortSeries(t *testing.T) {
	out := RSI([]float64{1, 2, 3}, 14)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("RSI[%d] = %v, want NaN for insufficient data", i, v)
		}
	}
}

func TestMACDHistogram(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	macdLine, signalLine, histogram := MACD(values, 12, 26, 9)

	if len(macdLine) != len(values) || len(signalLine) != len(values) {
		t.Fatal("MACD series must match input length")
	}
	for i := range values {
		almostEqual(t, "histogram", histogram[i], macdLine[i]-signalLine[i], 1e-9)
	}
	// on a steady uptrend the fast EMA sits above the slow EMA
	if macdLine[len(values)-1] <= 0 {
		t.Errorf("macd on uptrend = %v, want > 0", macdLine[len(values)-1])
	}
}

func TestBollingerBandsFlatSeries(t *testing.T) {
	values := []float64{10, 10, 10, 10, 10}
	upper, middle, lower := BollingerBands(values, 3, 2.0)

	almostEqual(t, "upper", upper[4], 10.0, 1e-12)
	almostEqual(t, "middle", middle[4], 10.0, 1e-12)
	almostEqual(t, "lower", lower[4], 10.0, 1e-12)
}

func TestBollingerBandsSymmetry(t *testing.T) {
	values := []float64{10, 12, 8, 11, 9, 13, 7}
	upper, middle, lower := BollingerBands(values, 5, 2.0)

	last := len(values) - 1
	almostEqual(t, "band symmetry", upper[last]-middle[last], middle[last]-lower[last], 1e-9)
	if upper[last] <= lower[last] {
		t.Error("upper band should sit above lower band")
	}
}

func TestStochasticAtExtremes(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14}
	lows := []float64{8, 9, 10, 11, 12}
	closes := []float64{9, 10, 11, 12, 14}

	k, d := Stochastic(highs, lows, closes, 3, 2)
	// close equals the period high on the last bar
	almostEqual(t, "%K at high", k[4], 100.0, 1e-9)
	if math.IsNaN(d[4]) {
		t.Error("%D should be defined once %K has enough history")
	}
}

func TestStochasticFlatRange(t *testing.T) {
	flat := []float64{10, 10, 10}
	k, _ := Stochastic(flat, flat, flat, 3, 2)
	if !math.IsNaN(k[2]) {
		t.Errorf("%%K with no range = %v, want NaN", k[2])
	}
}
