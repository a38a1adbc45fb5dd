package backtest

import (
	"errors"
	"math"
	"testing"

	"github.com/yourusername/quantdesk/internal/models"
)

func TestRunWalkForwardWindows(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	prices := pricesFromCloses(closes, 1000)

	result, err := testEngine().RunWalkForward(StrategyBuyAndHold, prices, Params{}, WalkForwardConfig{
		TrainBars: 40,
		TestBars:  20,
	})
	if err != nil {
		t.Fatalf("RunWalkForward: %v", err)
	}

	// (120-60)/20+1 = 4 windows stepping by the test size
	if len(result.Windows) != 4 {
		t.Fatalf("windows = %d, want 4", len(result.Windows))
	}
	if result.Windows[0].TestStart != 40 || result.Windows[0].TestEnd != 60 {
		t.Errorf("first window = [%d,%d), want [40,60)",
			result.Windows[0].TestStart, result.Windows[0].TestEnd)
	}

	// a monotone uptrend is profitable in every test window
	if result.ConsistencyScore != 100 {
		t.Errorf("consistency = %v, want 100", result.ConsistencyScore)
	}
	if result.MeanTestReturn <= 0 {
		t.Errorf("mean test return = %v, want > 0", result.MeanTestReturn)
	}
}

func TestRunWalkForwardScoresTestSliceOnly(t *testing.T) {
	// flat training prefix, then a 10% rise across the test window
	closes := make([]float64, 60)
	for i := 0; i < 40; i++ {
		closes[i] = 100
	}
	for i := 40; i < 60; i++ {
		closes[i] = 100 * (1 + 0.10*float64(i-39)/20)
	}
	prices := pricesFromCloses(closes, 1000)

	result, err := testEngine().RunWalkForward(StrategyBuyAndHold, prices, Params{}, WalkForwardConfig{
		TrainBars: 40,
		TestBars:  20,
	})
	if err != nil {
		t.Fatalf("RunWalkForward: %v", err)
	}
	if len(result.Windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(result.Windows))
	}

	got := result.Windows[0].TestMetrics.TotalReturn
	want := (closes[59]/closes[40] - 1) * 100
	if math.Abs(got-want) > 0.05 {
		t.Errorf("test return = %v, want ~%v", got, want)
	}
}

func TestRunWalkForwardWorstDrawdownTracksDeepestWindow(t *testing.T) {
	// sawtooth: each window rallies then gives most of it back, so every
	// test slice carries a real drawdown
	closes := make([]float64, 120)
	for i := range closes {
		cycle := i % 20
		if cycle < 10 {
			closes[i] = 100 + 5*float64(cycle)
		} else {
			closes[i] = 145 - 4*float64(cycle-10)
		}
	}
	prices := pricesFromCloses(closes, 1000)

	result, err := testEngine().RunWalkForward(StrategyBuyAndHold, prices, Params{}, WalkForwardConfig{
		TrainBars: 40,
		TestBars:  20,
	})
	if err != nil {
		t.Fatalf("RunWalkForward: %v", err)
	}

	deepest := 0.0
	for _, w := range result.Windows {
		if w.TestMetrics.MaxDrawdown > deepest {
			deepest = w.TestMetrics.MaxDrawdown
		}
	}
	if deepest <= 0 {
		t.Fatal("expected the sawtooth windows to produce a drawdown")
	}
	if result.WorstTestDrawdown != deepest {
		t.Errorf("WorstTestDrawdown = %v, want deepest window drawdown %v",
			result.WorstTestDrawdown, deepest)
	}
}

func TestRunWalkForwardInsufficientBars(t *testing.T) {
	prices := pricesFromCloses([]float64{100, 101, 102}, 1000)
	_, err := testEngine().RunWalkForward(StrategyBuyAndHold, prices, Params{}, WalkForwardConfig{
		TrainBars: 40,
		TestBars:  20,
	})
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestRunWalkForwardRejectsBadWindows(t *testing.T) {
	prices := pricesFromCloses([]float64{100, 101, 102}, 1000)
	_, err := testEngine().RunWalkForward(StrategyBuyAndHold, prices, Params{}, WalkForwardConfig{})
	if err == nil {
		t.Fatal("expected error for zero window sizes")
	}
}
