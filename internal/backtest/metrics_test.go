package backtest

import (
	"math"
	"testing"

	"github.com/yourusername/quantdesk/internal/models"
)

func TestCountTransitions(t *testing.T) {
	tests := []struct {
		name    string
		signals []int
		want    int
	}{
		{"no signals", []int{0, 0, 0}, 0},
		{"constant long", []int{1, 1, 1}, 0},
		{"round trip", []int{0, 1, 1, 0}, 2},
		{"flip", []int{0, 1, -1, 0}, 3},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countTransitions(tt.signals); got != tt.want {
				t.Errorf("countTransitions(%v) = %d, want %d", tt.signals, got, tt.want)
			}
		})
	}
}

func TestApplyTransactionCosts(t *testing.T) {
	returns := []float64{0, 0.01, 0.02, 0.03}
	signals := []int{0, 1, 1, 0}
	applyTransactionCosts(returns, signals, 0.0015)

	want := []float64{0, 0.0085, 0.02, 0.0285}
	for i := range want {
		if math.Abs(returns[i]-want[i]) > 1e-12 {
			t.Errorf("returns[%d] = %v, want %v", i, returns[i], want[i])
		}
	}
}

func TestClosedTradeReturns(t *testing.T) {
	cumulative := []float64{1.0, 1.0, 1.1, 1.21}
	signals := []int{0, 1, 1, 0}

	trades := closedTradeReturns(cumulative, signals)
	if len(trades) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(trades))
	}
	if math.Abs(trades[0]-0.21) > 1e-9 {
		t.Errorf("trade return = %v, want 0.21", trades[0])
	}
}

func TestClosedTradeReturnsOpenAtEnd(t *testing.T) {
	cumulative := []float64{1.0, 1.1, 1.2}
	signals := []int{1, 1, 1}

	if trades := closedTradeReturns(cumulative, signals); len(trades) != 0 {
		t.Errorf("position open at window end should not count, got %v", trades)
	}
}

func TestCalculateResultAllWinningTrades(t *testing.T) {
	returns := []float64{0, 0.1, 0, 0.1, 0}
	signals := []int{0, 1, 0, 1, 0}

	result := calculateResult("test", returns, signals, DefaultParams())

	if result.NumTrades != 2 {
		t.Errorf("NumTrades = %d, want 2", result.NumTrades)
	}
	if result.WinRate != 100.0 {
		t.Errorf("WinRate = %v, want 100", result.WinRate)
	}
	if result.ProfitFactorOutcome != models.ProfitFactorNoLosses {
		t.Errorf("outcome = %s, want %s", result.ProfitFactorOutcome, models.ProfitFactorNoLosses)
	}
	if result.ProfitFactor != models.ProfitFactorSentinel {
		t.Errorf("ProfitFactor = %v, want sentinel %v", result.ProfitFactor, models.ProfitFactorSentinel)
	}
}

func TestCalculateResultNoTrades(t *testing.T) {
	returns := []float64{0, 0.01, -0.01}
	signals := []int{0, 0, 0}

	result := calculateResult("idle", returns, signals, DefaultParams())

	if result.NumTrades != 0 {
		t.Errorf("NumTrades = %d, want 0", result.NumTrades)
	}
	if result.WinRate != 0 || result.ProfitFactor != 0 {
		t.Errorf("idle strategy should report zero win rate and profit factor")
	}
	if result.ProfitFactorOutcome != models.ProfitFactorNoTrades {
		t.Errorf("outcome = %s, want %s", result.ProfitFactorOutcome, models.ProfitFactorNoTrades)
	}
}

func TestCalculateResultMixedTrades(t *testing.T) {
	// one winning and one losing round trip
	returns := []float64{0, 0.2, 0, -0.1, 0}
	signals := []int{0, 1, 0, 1, 0}

	result := calculateResult("mixed", returns, signals, DefaultParams())

	if result.WinRate != 50.0 {
		t.Errorf("WinRate = %v, want 50", result.WinRate)
	}
	if result.ProfitFactorOutcome != models.ProfitFactorDefined {
		t.Errorf("outcome = %s, want %s", result.ProfitFactorOutcome, models.ProfitFactorDefined)
	}
	if result.ProfitFactor <= 0 {
		t.Errorf("ProfitFactor = %v, want > 0", result.ProfitFactor)
	}
}

func TestRollingMeanWarmup(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := rollingMean(values, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("warmup values should be NaN")
	}
	if math.Abs(out[2]-2.0) > 1e-12 || math.Abs(out[4]-4.0) > 1e-12 {
		t.Errorf("rolling means = %v", out)
	}
}

func TestRollingStddevConstantSeries(t *testing.T) {
	values := []float64{5, 5, 5, 5}
	out := rollingStddev(values, 3)

	if !math.IsNaN(out[1]) {
		t.Error("warmup should be NaN")
	}
	if out[3] != 0 {
		t.Errorf("constant series stddev = %v, want 0", out[3])
	}
}
