package signals

import "math"

// Indicator series are full length with NaN padding during the warmup so
// callers can index them against the source bars directly.

// SMA is the simple moving average over the trailing window
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EMA is the exponential moving average with the span convention
// alpha = 2/(span+1), seeded from the first value
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI is the relative strength index with Wilder smoothing. The first
// average is a simple mean of the initial period; an all-gain window
// saturates at 100.
func RSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) <= period {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line, the signal line and the histogram
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (macdLine, signalLine, histogram []float64) {
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	macdLine = make([]float64, len(values))
	for i := range values {
		macdLine[i] = fast[i] - slow[i]
	}
	signalLine = EMA(macdLine, signalPeriod)

	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}

// BollingerBands returns the upper band, the middle SMA and the lower band
func BollingerBands(values []float64, period int, numStd float64) (upper, middle, lower []float64) {
	middle = SMA(values, period)
	std := rollingSampleStddev(values, period)

	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		upper[i] = middle[i] + numStd*std[i]
		lower[i] = middle[i] - numStd*std[i]
	}
	return upper, middle, lower
}

// Stochastic returns the %K and %D oscillator lines from high/low/close
// columns. A flat high-low range yields NaN for that bar.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (kLine, dLine []float64) {
	n := len(closes)
	kLine = make([]float64, n)
	for i := 0; i < n; i++ {
		if i < kPeriod-1 {
			kLine[i] = math.NaN()
			continue
		}
		lowMin := math.Inf(1)
		highMax := math.Inf(-1)
		for j := i - kPeriod + 1; j <= i; j++ {
			if lows[j] < lowMin {
				lowMin = lows[j]
			}
			if highs[j] > highMax {
				highMax = highs[j]
			}
		}
		if highMax == lowMin {
			kLine[i] = math.NaN()
			continue
		}
		kLine[i] = 100 * (closes[i] - lowMin) / (highMax - lowMin)
	}
	dLine = nanRollingMean(kLine, dPeriod)
	return kLine, dLine
}

func rollingSampleStddev(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < period-1 || period < 2 {
			out[i] = math.NaN()
			continue
		}
		window := values[i-period+1 : i+1]
		m := 0.0
		for _, v := range window {
			m += v
		}
		m /= float64(period)
		variance := 0.0
		for _, v := range window {
			diff := v - m
			variance += diff * diff
		}
		out[i] = math.Sqrt(variance / float64(period-1))
	}
	return out
}

// nanRollingMean averages the trailing window, propagating NaN whenever
// the window contains one
func nanRollingMean(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			sum += values[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}
