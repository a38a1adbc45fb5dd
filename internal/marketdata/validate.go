package marketdata

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/models"
)

var (
	errNegativePrices  = errors.New("negative prices in data")
	errNegativeVolumes = errors.New("negative volumes in data")
)

// cleanSeries validates fetched bars before they reach any computation.
// Negative prices or volumes fail the series outright; extreme moves,
// zero prices, thin volume and long gaps are reported but tolerated.
func cleanSeries(series models.PriceSeries, symbol string, log *logrus.Logger) (models.PriceSeries, error) {
	zeroPrices := 0
	extremeMoves := 0
	volumeSum := 0.0
	for i, bar := range series {
		if bar.Close < 0 || bar.Open < 0 || bar.High < 0 || bar.Low < 0 {
			return nil, errNegativePrices
		}
		if bar.Volume < 0 {
			return nil, errNegativeVolumes
		}
		if bar.Close == 0 {
			zeroPrices++
		}
		volumeSum += bar.Volume

		if i > 0 {
			prev := series[i-1].Close
			if prev > 0 {
				change := bar.Close/prev - 1
				if change > 1.0 || change < -1.0 {
					extremeMoves++
				}
			}
		}
	}

	if zeroPrices > 0 {
		log.WithFields(logrus.Fields{"symbol": symbol, "count": zeroPrices}).Warn("Zero prices in data")
	}
	if extremeMoves > 0 {
		log.WithFields(logrus.Fields{"symbol": symbol, "count": extremeMoves}).Warn("Extreme price changes detected, possible data error")
	}
	if avg := volumeSum / float64(len(series)); avg > 0 && avg < 1000 {
		log.WithFields(logrus.Fields{"symbol": symbol, "avg_volume": avg}).Warn("Very low average volume, data may be unreliable")
	}

	checkGaps(series, symbol, log)
	return series, nil
}

// checkGaps warns about spans longer than a week between consecutive bars
func checkGaps(series models.PriceSeries, symbol string, log *logrus.Logger) {
	gaps := 0
	for i := 1; i < len(series); i++ {
		if series[i].Date.Sub(series[i-1].Date) > 7*24*time.Hour {
			gaps++
		}
	}
	if gaps > 0 {
		log.WithFields(logrus.Fields{"symbol": symbol, "count": gaps}).Warn("Data gaps longer than 7 days")
	}
}
