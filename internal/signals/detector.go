package signals

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quantdesk/internal/models"
)

// Detector scans the tail of a price series for indicator-driven events.
// Only the transition between the last two bars is examined; history is
// never scanned retroactively.
type Detector struct {
	prices models.PriceSeries
	log    *logrus.Logger
}

// NewDetector creates a detector over a time-ordered price series
func NewDetector(prices models.PriceSeries, log *logrus.Logger) *Detector {
	return &Detector{prices: prices, log: log}
}

// DetectMACrossover fires on a golden or death cross between the short
// and long simple moving averages on the latest bar
func (d *Detector) DetectMACrossover(shortPeriod, longPeriod int) *models.SignalEvent {
	if len(d.prices) < longPeriod+1 {
		return nil
	}
	closes := d.prices.Closes()
	shortMA := SMA(closes, shortPeriod)
	longMA := SMA(closes, longPeriod)

	cur := len(closes) - 1
	prev := cur - 1
	if math.IsNaN(shortMA[cur]) || math.IsNaN(longMA[cur]) || math.IsNaN(shortMA[prev]) || math.IsNaN(longMA[prev]) {
		return nil
	}
	bar := d.prices[cur]

	if shortMA[prev] < longMA[prev] && shortMA[cur] > longMA[cur] {
		distancePct := (shortMA[cur] - longMA[cur]) / longMA[cur] * 100
		return &models.SignalEvent{
			Direction: models.SignalBuy,
			Strength:  crossoverStrength(distancePct),
			Strategy:  "MA Crossover",
			Price:     bar.Close,
			Timestamp: bar.Date,
			Indicators: map[string]float64{
				fmt.Sprintf("sma_%d", shortPeriod): models.Round2(shortMA[cur]),
				fmt.Sprintf("sma_%d", longPeriod):  models.Round2(longMA[cur]),
				"crossover_strength":               models.Round2(distancePct),
			},
			Message: fmt.Sprintf("Golden Cross: SMA%d crossed above SMA%d", shortPeriod, longPeriod),
		}
	}

	if shortMA[prev] > longMA[prev] && shortMA[cur] < longMA[cur] {
		distancePct := (longMA[cur] - shortMA[cur]) / longMA[cur] * 100
		return &models.SignalEvent{
			Direction: models.SignalSell,
			Strength:  crossoverStrength(distancePct),
			Strategy:  "MA Crossover",
			Price:     bar.Close,
			Timestamp: bar.Date,
			Indicators: map[string]float64{
				fmt.Sprintf("sma_%d", shortPeriod): models.Round2(shortMA[cur]),
				fmt.Sprintf("sma_%d", longPeriod):  models.Round2(longMA[cur]),
				"crossover_strength":               models.Round2(distancePct),
			},
			Message: fmt.Sprintf("Death Cross: SMA%d crossed below SMA%d", shortPeriod, longPeriod),
		}
	}
	return nil
}

// DetectRSI fires when the RSI enters the oversold or overbought band on
// the latest bar
func (d *Detector) DetectRSI(period int, oversold, overbought float64) *models.SignalEvent {
	if len(d.prices) < period+2 {
		return nil
	}
	rsi := RSI(d.prices.Closes(), period)

	cur := len(rsi) - 1
	prev := cur - 1
	if math.IsNaN(rsi[cur]) || math.IsNaN(rsi[prev]) {
		return nil
	}
	bar := d.prices[cur]

	if rsi[cur] < oversold && rsi[prev] >= oversold {
		strength := models.SignalWeak
		if rsi[cur] < 20 {
			strength = models.SignalStrong
		} else if rsi[cur] < 25 {
			strength = models.SignalModerate
		}
		return &models.SignalEvent{
			Direction: models.SignalBuy,
			Strength:  strength,
			Strategy:  "RSI",
			Price:     bar.Close,
			Timestamp: bar.Date,
			Indicators: map[string]float64{
				"rsi":          models.Round2(rsi[cur]),
				"rsi_previous": models.Round2(rsi[prev]),
				"threshold":    oversold,
			},
			Message: fmt.Sprintf("RSI Oversold: %.1f below %.0f", rsi[cur], oversold),
		}
	}

	if rsi[cur] > overbought && rsi[prev] <= overbought {
		strength := models.SignalWeak
		if rsi[cur] > 80 {
			strength = models.SignalStrong
		} else if rsi[cur] > 75 {
			strength = models.SignalModerate
		}
		return &models.SignalEvent{
			Direction: models.SignalSell,
			Strength:  strength,
			Strategy:  "RSI",
			Price:     bar.Close,
			Timestamp: bar.Date,
			Indicators: map[string]float64{
				"rsi":          models.Round2(rsi[cur]),
				"rsi_previous": models.Round2(rsi[prev]),
				"threshold":    overbought,
			},
			Message: fmt.Sprintf("RSI Overbought: %.1f above %.0f", rsi[cur], overbought),
		}
	}
	return nil
}

// DetectMACD fires on a MACD/signal line crossover on the latest bar.
// Strength follows the histogram magnitude.
func (d *Detector) DetectMACD() *models.SignalEvent {
	if len(d.prices) < 50 {
		return nil
	}
	macdLine, signalLine, histogram := MACD(d.prices.Closes(), 12, 26, 9)

	cur := len(macdLine) - 1
	prev := cur - 1
	bar := d.prices[cur]

	var direction models.SignalDirection
	var message string
	switch {
	case macdLine[prev] < signalLine[prev] && macdLine[cur] > signalLine[cur]:
		direction = models.SignalBuy
		message = "MACD Bullish Crossover: MACD crossed above Signal line"
	case macdLine[prev] > signalLine[prev] && macdLine[cur] < signalLine[cur]:
		direction = models.SignalSell
		message = "MACD Bearish Crossover: MACD crossed below Signal line"
	default:
		return nil
	}

	strength := models.SignalWeak
	if math.Abs(histogram[cur]) > 1 {
		strength = models.SignalStrong
	} else if math.Abs(histogram[cur]) > 0.5 {
		strength = models.SignalModerate
	}
	return &models.SignalEvent{
		Direction: direction,
		Strength:  strength,
		Strategy:  "MACD",
		Price:     bar.Close,
		Timestamp: bar.Date,
		Indicators: map[string]float64{
			"macd":      models.Round2(macdLine[cur]),
			"signal":    models.Round2(signalLine[cur]),
			"histogram": models.Round2(histogram[cur]),
		},
		Message: message,
	}
}

// DetectBollinger fires when the price re-enters the bands after touching
// or crossing one on the previous bar
func (d *Detector) DetectBollinger(period int, numStd float64) *models.SignalEvent {
	if len(d.prices) < period+1 {
		return nil
	}
	closes := d.prices.Closes()
	upper, middle, lower := BollingerBands(closes, period, numStd)

	cur := len(closes) - 1
	prev := cur - 1
	if math.IsNaN(upper[cur]) || math.IsNaN(lower[cur]) || math.IsNaN(upper[prev]) || math.IsNaN(lower[prev]) {
		return nil
	}
	bar := d.prices[cur]
	bandWidth := (upper[cur] - lower[cur]) / middle[cur] * 100

	if closes[prev] <= lower[prev] && closes[cur] > lower[cur] {
		distance := (middle[cur] - closes[cur]) / middle[cur] * 100
		return &models.SignalEvent{
			Direction: models.SignalBuy,
			Strength:  bollingerStrength(distance),
			Strategy:  "Bollinger Bands",
			Price:     bar.Close,
			Timestamp: bar.Date,
			Indicators: map[string]float64{
				"price":       models.Round2(closes[cur]),
				"lower_band":  models.Round2(lower[cur]),
				"middle_band": models.Round2(middle[cur]),
				"band_width":  models.Round2(bandWidth),
			},
			Message: "Bollinger Bounce: Price bounced off lower band",
		}
	}

	if closes[prev] >= upper[prev] && closes[cur] < upper[cur] {
		distance := (closes[cur] - middle[cur]) / middle[cur] * 100
		return &models.SignalEvent{
			Direction: models.SignalSell,
			Strength:  bollingerStrength(distance),
			Strategy:  "Bollinger Bands",
			Price:     bar.Close,
			Timestamp: bar.Date,
			Indicators: map[string]float64{
				"price":       models.Round2(closes[cur]),
				"upper_band":  models.Round2(upper[cur]),
				"middle_band": models.Round2(middle[cur]),
				"band_width":  models.Round2(bandWidth),
			},
			Message: "Bollinger Bounce: Price bounced off upper band",
		}
	}
	return nil
}

// DetectAll runs every detector with its default parameters and stamps
// the symbol onto each event. A panicking detector is logged and skipped.
func (d *Detector) DetectAll(symbol string) []models.SignalEvent {
	detectors := []struct {
		name string
		run  func() *models.SignalEvent
	}{
		{"ma_crossover", func() *models.SignalEvent { return d.DetectMACrossover(20, 50) }},
		{"rsi", func() *models.SignalEvent { return d.DetectRSI(14, 30, 70) }},
		{"macd", d.DetectMACD},
		{"bollinger", func() *models.SignalEvent { return d.DetectBollinger(20, 2.0) }},
	}

	events := make([]models.SignalEvent, 0)
	for _, det := range detectors {
		event := d.safeDetect(det.name, det.run)
		if event != nil {
			event.Symbol = symbol
			events = append(events, *event)
		}
	}
	return events
}

func (d *Detector) safeDetect(name string, run func() *models.SignalEvent) (event *models.SignalEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{
				"detector": name,
				"panic":    r,
			}).Warn("Signal detector failed")
			event = nil
		}
	}()
	return run()
}

func crossoverStrength(distancePct float64) models.SignalStrength {
	switch {
	case distancePct > 2:
		return models.SignalStrong
	case distancePct > 1:
		return models.SignalModerate
	default:
		return models.SignalWeak
	}
}

func bollingerStrength(distancePct float64) models.SignalStrength {
	switch {
	case distancePct > 5:
		return models.SignalStrong
	case distancePct > 3:
		return models.SignalModerate
	default:
		return models.SignalWeak
	}
}
