package portfolio

import (
	"math"

	"github.com/yourusername/quantdesk/internal/models"
)

// EfficientFrontier samples random normalized weight vectors and reports
// the annualized risk/return landscape. The scan is illustrative: points
// cluster around the frontier rather than tracing it exactly.
func (a *Analyzer) EfficientFrontier(nPortfolios int) []models.FrontierPoint {
	n := a.table.NumAssets()
	if n == 0 || len(a.returnRows) == 0 {
		return []models.FrontierPoint{}
	}
	meanReturns := make([]float64, n)
	for i := 0; i < n; i++ {
		meanReturns[i] = meanOf(a.assetReturnColumn(i)) * float64(a.opts.PeriodsPerYear)
	}
	cov := a.CovarianceMatrix(true)

	points := make([]models.FrontierPoint, 0, nPortfolios)
	candidate := make([]float64, n)
	for iter := 0; iter < nPortfolios; iter++ {
		sum := 0.0
		for i := range candidate {
			candidate[i] = a.rng.Float64()
			sum += candidate[i]
		}
		for i := range candidate {
			candidate[i] /= sum
		}

		portReturn := dot(candidate, meanReturns) * 100
		portVol := math.Sqrt(quadraticForm(candidate, cov)) * 100
		sharpe := 0.0
		if portVol > 0 {
			sharpe = (portReturn/100 - a.opts.RiskFreeRate) / (portVol / 100)
		}

		weights := make(models.Weights, n)
		for i, asset := range a.table.Assets {
			weights[asset] = models.Round4(candidate[i])
		}
		points = append(points, models.FrontierPoint{
			Return:     models.Round2(portReturn),
			Volatility: models.Round2(portVol),
			Sharpe:     models.Round2(sharpe),
			Weights:    weights,
		})
	}
	return points
}
