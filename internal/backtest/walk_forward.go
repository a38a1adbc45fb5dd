package backtest

import (
	"fmt"

	"github.com/yourusername/quantdesk/internal/models"
)

// WalkForwardConfig configures the rolling out-of-sample evaluation
type WalkForwardConfig struct {
	TrainBars int // bars used to warm the strategy before each test window
	TestBars  int // out-of-sample bars scored per window
	StepBars  int // window advance; defaults to TestBars
}

// WalkForwardWindow holds one out-of-sample slice and its result
type WalkForwardWindow struct {
	WindowID    int                    `json:"window_id"`
	TrainStart  int                    `json:"train_start"`
	TestStart   int                    `json:"test_start"`
	TestEnd     int                    `json:"test_end"`
	TestMetrics *models.StrategyResult `json:"test_metrics"`
}

// WalkForwardResult aggregates the rolling windows
type WalkForwardResult struct {
	Strategy          string              `json:"strategy"`
	Windows           []WalkForwardWindow `json:"windows"`
	MeanTestReturn    float64             `json:"mean_test_return"`
	MeanTestSharpe    float64             `json:"mean_test_sharpe"`
	WorstTestDrawdown float64             `json:"worst_test_drawdown"`
	ConsistencyScore  float64             `json:"consistency_score"`
}

// RunWalkForward slides a train+test window across the price history.
// Each test slice is backtested together with its training prefix so
// indicator warmup matches live behavior, and only the test bars are
// scored. The consistency score is the share of profitable windows.
func (e *Engine) RunWalkForward(strategy StrategyType, prices models.PriceSeries, params Params, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if cfg.TrainBars <= 0 || cfg.TestBars <= 0 {
		return WalkForwardResult{}, fmt.Errorf("train and test windows must be positive")
	}
	if cfg.StepBars <= 0 {
		cfg.StepBars = cfg.TestBars
	}
	if len(prices) < cfg.TrainBars+cfg.TestBars {
		return WalkForwardResult{}, fmt.Errorf("need at least %d bars, have %d: %w",
			cfg.TrainBars+cfg.TestBars, len(prices), models.ErrInsufficientData)
	}

	windows := []WalkForwardWindow{}
	windowID := 0
	for start := 0; start+cfg.TrainBars+cfg.TestBars <= len(prices); start += cfg.StepBars {
		testStart := start + cfg.TrainBars
		testEnd := testStart + cfg.TestBars

		slice := prices[start:testEnd]
		full, err := e.Run(strategy, slice, params)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("window %d: %w", windowID+1, err)
		}

		windowID++
		windows = append(windows, WalkForwardWindow{
			WindowID:    windowID,
			TrainStart:  start,
			TestStart:   testStart,
			TestEnd:     testEnd,
			TestMetrics: scoreTestSlice(full, cfg.TrainBars, params),
		})
	}
	if len(windows) == 0 {
		return WalkForwardResult{}, models.ErrInsufficientData
	}

	result := WalkForwardResult{
		Strategy: string(strategy),
		Windows:  windows,
	}
	profitable := 0
	for _, w := range windows {
		result.MeanTestReturn += w.TestMetrics.TotalReturn
		result.MeanTestSharpe += w.TestMetrics.SharpeRatio
		if w.TestMetrics.MaxDrawdown > result.WorstTestDrawdown {
			result.WorstTestDrawdown = w.TestMetrics.MaxDrawdown
		}
		if w.TestMetrics.TotalReturn > 0 {
			profitable++
		}
	}
	result.MeanTestReturn = models.Round2(result.MeanTestReturn / float64(len(windows)))
	result.MeanTestSharpe = models.Round2(result.MeanTestSharpe / float64(len(windows)))
	result.ConsistencyScore = models.Round2(float64(profitable) / float64(len(windows)) * 100)
	return result, nil
}

// scoreTestSlice recomputes metrics over the test bars only, using the
// wealth curve of the full train+test run
func scoreTestSlice(full *models.StrategyResult, trainBars int, params Params) *models.StrategyResult {
	testCurve := full.CumulativeReturns[trainBars:]
	testSignals := full.Signals[trainBars:]

	// rebase the window: bar 0 of the slice contributes no return
	returns := append([]float64{0}, dailyReturns(testCurve)...)
	return calculateResult(full.StrategyName, returns, testSignals, params)
}
