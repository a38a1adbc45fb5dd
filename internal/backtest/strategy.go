package backtest

import (
	"math"

	"github.com/yourusername/quantdesk/internal/models"
)

// StrategyType identifies a backtest strategy
type StrategyType string

const (
	StrategyBuyAndHold    StrategyType = "buy_and_hold"
	StrategyMomentum      StrategyType = "momentum"
	StrategyMeanReversion StrategyType = "mean_reversion"
	StrategyMACrossover   StrategyType = "ma_crossover"
)

// Params holds strategy and cost-model parameters. Use DefaultParams as
// the base and override individual fields.
type Params struct {
	LookbackPeriod        int     `json:"lookback_period"`
	HoldingPeriod         int     `json:"holding_period"` // accepted for API compatibility, not used by the walk
	UseVolumeConfirmation bool    `json:"use_volume_confirmation"`
	Window                int     `json:"window"`
	NumStd                float64 `json:"num_std"`
	ShortWindow           int     `json:"short_window"`
	LongWindow            int     `json:"long_window"`
	TransactionCost       float64 `json:"transaction_cost"`
	Slippage              float64 `json:"slippage"`
	RiskFreeRate          float64 `json:"risk_free_rate"`
	PeriodsPerYear        int     `json:"periods_per_year"`
}

// DefaultParams returns the standard parameter set
func DefaultParams() Params {
	return Params{
		LookbackPeriod:        20,
		HoldingPeriod:         5,
		UseVolumeConfirmation: true,
		Window:                20,
		NumStd:                2.0,
		ShortWindow:           20,
		LongWindow:            50,
		TransactionCost:       0.001,
		Slippage:              0.0005,
		RiskFreeRate:          0.04,
		PeriodsPerYear:        252,
	}
}

func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.LookbackPeriod <= 0 {
		p.LookbackPeriod = def.LookbackPeriod
	}
	if p.HoldingPeriod <= 0 {
		p.HoldingPeriod = def.HoldingPeriod
	}
	if p.Window <= 0 {
		p.Window = def.Window
	}
	if p.NumStd <= 0 {
		p.NumStd = def.NumStd
	}
	if p.ShortWindow <= 0 {
		p.ShortWindow = def.ShortWindow
	}
	if p.LongWindow <= 0 {
		p.LongWindow = def.LongWindow
	}
	if p.PeriodsPerYear <= 0 {
		p.PeriodsPerYear = def.PeriodsPerYear
	}
	return p
}

// lagSignals shifts positions one bar forward so a signal computed on bar
// i is only traded on bar i+1
func lagSignals(signals []int) []int {
	lagged := make([]int, len(signals))
	copy(lagged[1:], signals[:len(signals)-1])
	return lagged
}

func buyAndHoldSignals(n int) []int {
	signals := make([]int, n)
	for i := range signals {
		signals[i] = 1
	}
	return signals
}

func momentumSignals(prices models.PriceSeries, lookback int, useVolume bool) []int {
	closes := prices.Closes()
	volumes := prices.Volumes()
	signals := make([]int, len(closes))

	var avgVolume []float64
	if useVolume {
		avgVolume = rollingMean(volumes, lookback)
	}

	for i := lookback; i < len(closes); i++ {
		if closes[i-lookback] == 0 {
			continue
		}
		momentum := closes[i]/closes[i-lookback] - 1
		if useVolume {
			if math.IsNaN(avgVolume[i]) || avgVolume[i] <= 0 || volumes[i]/avgVolume[i] <= 1.0 {
				continue
			}
		}
		switch {
		case momentum > 0:
			signals[i] = 1
		case momentum < 0:
			signals[i] = -1
		}
	}
	return lagSignals(signals)
}

// meanReversionSignals walks the series sequentially: enter long below the
// lower band, enter short above the upper band, exit once the price comes
// back through the rolling mean.
func meanReversionSignals(closes []float64, window int, numStd float64) []int {
	signals := make([]int, len(closes))
	rollMean := rollingMean(closes, window)
	rollStd := rollingStddev(closes, window)

	position := 0
	for i := window; i < len(closes); i++ {
		price := closes[i]
		upper := rollMean[i] + numStd*rollStd[i]
		lower := rollMean[i] - numStd*rollStd[i]

		switch {
		case price < lower:
			position = 1
		case price > upper:
			position = -1
		default:
			if position == 1 && price > rollMean[i] {
				position = 0
			} else if position == -1 && price < rollMean[i] {
				position = 0
			}
		}
		signals[i] = position
	}
	return lagSignals(signals)
}

func maCrossoverSignals(closes []float64, shortWindow, longWindow int) []int {
	signals := make([]int, len(closes))
	shortMA := rollingMean(closes, shortWindow)
	longMA := rollingMean(closes, longWindow)

	for i := range closes {
		if math.IsNaN(shortMA[i]) || math.IsNaN(longMA[i]) {
			continue
		}
		switch {
		case shortMA[i] > longMA[i]:
			signals[i] = 1
		case shortMA[i] < longMA[i]:
			signals[i] = -1
		}
	}
	return lagSignals(signals)
}

// rollingMean returns a full-length series with NaN during the warmup
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingStddev is the trailing sample standard deviation, NaN during warmup
func rollingStddev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 || window < 2 {
			out[i] = math.NaN()
			continue
		}
		slice := values[i-window+1 : i+1]
		m := 0.0
		for _, v := range slice {
			m += v
		}
		m /= float64(window)
		variance := 0.0
		for _, v := range slice {
			diff := v - m
			variance += diff * diff
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}
