package portfolio

import (
	"math"

	"github.com/yourusername/quantdesk/internal/models"
)

// pivot threshold below which the covariance system is treated as singular
const singularPivot = 1e-12

// MinVarianceWeights solves the global minimum variance portfolio from
// the annualized covariance matrix, clips short positions and
// renormalizes. A singular covariance matrix means the optimizer cannot
// converge; equal weights are returned with the fallback flag set.
func (a *Analyzer) MinVarianceWeights() (models.Weights, bool) {
	n := a.table.NumAssets()
	cov := a.CovarianceMatrix(true)

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	solution, ok := solveLinearSystem(cov, ones)
	if !ok {
		a.log.Warn("Singular covariance matrix, falling back to equal weights")
		return a.EqualWeights(), true
	}

	sum := 0.0
	for i := range solution {
		if solution[i] < 0 {
			solution[i] = 0
		}
		sum += solution[i]
	}
	if sum <= 0 {
		a.log.Warn("Min variance weights degenerate, falling back to equal weights")
		return a.EqualWeights(), true
	}

	weights := make(models.Weights, n)
	for i, asset := range a.table.Assets {
		weights[asset] = models.Round4(solution[i] / sum)
	}
	return weights, false
}

// MaxSharpeWeights searches random normalized weight vectors for the
// highest Sharpe ratio. The search is seeded through Options, so results
// are reproducible for a fixed seed.
func (a *Analyzer) MaxSharpeWeights(iterations int) models.Weights {
	n := a.table.NumAssets()
	meanReturns := make([]float64, n)
	for i := 0; i < n; i++ {
		meanReturns[i] = meanOf(a.assetReturnColumn(i)) * float64(a.opts.PeriodsPerYear)
	}
	cov := a.CovarianceMatrix(true)

	bestSharpe := math.Inf(-1)
	best := make([]float64, n)
	candidate := make([]float64, n)
	for iter := 0; iter < iterations; iter++ {
		sum := 0.0
		for i := range candidate {
			candidate[i] = a.rng.Float64()
			sum += candidate[i]
		}
		for i := range candidate {
			candidate[i] /= sum
		}

		portReturn := dot(candidate, meanReturns)
		portVol := math.Sqrt(quadraticForm(candidate, cov))
		if portVol == 0 {
			continue
		}
		sharpe := (portReturn - a.opts.RiskFreeRate) / portVol
		if sharpe > bestSharpe {
			bestSharpe = sharpe
			copy(best, candidate)
		}
	}

	if math.IsInf(bestSharpe, -1) {
		return a.EqualWeights()
	}
	weights := make(models.Weights, n)
	for i, asset := range a.table.Assets {
		weights[asset] = models.Round4(best[i])
	}
	return weights
}

// solveLinearSystem solves Ax=b by Gaussian elimination with partial
// pivoting. Returns false when a pivot collapses below the singularity
// threshold.
func solveLinearSystem(matrix [][]float64, rhs []float64) ([]float64, bool) {
	n := len(rhs)
	a := make([][]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = append([]float64{}, matrix[i]...)
		b[i] = rhs[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < singularPivot {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i][j] * x[j]
		}
		x[i] = sum / a[i][i]
	}
	return x, true
}

func quadraticForm(w []float64, matrix [][]float64) float64 {
	total := 0.0
	for i := range w {
		for j := range w {
			total += w[i] * matrix[i][j] * w[j]
		}
	}
	return total
}
