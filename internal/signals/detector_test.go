package signals

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quantdesk/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func barsFromCloses(closes []float64) models.PriceSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = models.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return series
}

func TestDetectMACrossoverGoldenCross(t *testing.T) {
	// the 2-bar average overtakes the 3-bar average only on the last bar
	d := NewDetector(barsFromCloses([]float64{10, 9, 8, 9, 12}), quietLogger())
	event := d.DetectMACrossover(2, 3)
	if event == nil {
		t.Fatal("expected a golden cross event")
	}
	if event.Direction != models.SignalBuy {
		t.Errorf("direction = %s, want buy", event.Direction)
	}
	if event.Strength != models.SignalStrong {
		t.Errorf("strength = %s, want strong", event.Strength)
	}
	if event.Price != 12 {
		t.Errorf("price = %v, want 12", event.Price)
	}
}

func TestDetectMACrossoverDeathCross(t *testing.T) {
	d := NewDetector(barsFromCloses([]float64{10, 11, 12, 11, 8}), quietLogger())
	event := d.DetectMACrossover(2, 3)
	if event == nil {
		t.Fatal("expected a death cross event")
	}
	if event.Direction != models.SignalSell {
		t.Errorf("direction = %s, want sell", event.Direction)
	}
}

func TestDetectMACrossoverNoTransition(t *testing.T) {
	// steadily rising: the short average leads throughout, no fresh cross
	d := NewDetector(barsFromCloses([]float64{10, 11, 12, 13, 14, 15}), quietLogger())
	if event := d.DetectMACrossover(2, 3); event != nil {
		t.Errorf("expected nil without a crossover, got %+v", event)
	}
}

func TestDetectMACrossoverInsufficientData(t *testing.T) {
	d := NewDetector(barsFromCloses([]float64{10, 11}), quietLogger())
	if event := d.DetectMACrossover(20, 50); event != nil {
		t.Error("expected nil for short history")
	}
}

func TestDetectRSIOversoldEntry(t *testing.T) {
	// flat history pins the RSI at 100; the final plunge drives it to 0
	d := NewDetector(barsFromCloses([]float64{10, 10, 10, 10, 10, 8}), quietLogger())
	event := d.DetectRSI(2, 30, 70)
	if event == nil {
		t.Fatal("expected an oversold event")
	}
	if event.Direction != models.SignalBuy || event.Strength != models.SignalStrong {
		t.Errorf("got %s/%s, want buy/strong", event.Direction, event.Strength)
	}
}

func TestDetectRSIOverboughtEntry(t *testing.T) {
	d := NewDetector(barsFromCloses([]float64{10, 9, 10, 9, 10, 15}), quietLogger())
	event := d.DetectRSI(2, 30, 70)
	if event == nil {
		t.Fatal("expected an overbought event")
	}
	if event.Direction != models.SignalSell || event.Strength != models.SignalStrong {
		t.Errorf("got %s/%s, want sell/strong", event.Direction, event.Strength)
	}
}

func TestDetectRSINoEntry(t *testing.T) {
	// already deep oversold on the previous bar: no fresh band entry
	d := NewDetector(barsFromCloses([]float64{10, 10, 10, 10, 9, 8}), quietLogger())
	if event := d.DetectRSI(2, 30, 70); event != nil {
		t.Errorf("expected nil when already inside the band, got %+v", event)
	}
}

func TestDetectMACDRequiresHistory(t *testing.T) {
	d := NewDetector(barsFromCloses(make([]float64, 30)), quietLogger())
	if event := d.DetectMACD(); event != nil {
		t.Error("expected nil below the 50-bar minimum")
	}
}

func TestDetectMACDBullishCrossover(t *testing.T) {
	// long decline keeps MACD under its signal line; the final spike
	// snaps it back across
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	closes[59] = 200
	d := NewDetector(barsFromCloses(closes), quietLogger())

	event := d.DetectMACD()
	if event == nil {
		t.Fatal("expected a bullish MACD crossover")
	}
	if event.Direction != models.SignalBuy {
		t.Errorf("direction = %s, want buy", event.Direction)
	}
	if event.Strength != models.SignalStrong {
		t.Errorf("strength = %s, want strong for a large histogram", event.Strength)
	}
}

func TestDetectBollingerLowerBounce(t *testing.T) {
	d := NewDetector(barsFromCloses([]float64{10, 10, 10, 10, 6, 9}), quietLogger())
	event := d.DetectBollinger(3, 1.0)
	if event == nil {
		t.Fatal("expected a lower band bounce")
	}
	if event.Direction != models.SignalBuy {
		t.Errorf("direction = %s, want buy", event.Direction)
	}
}

func TestDetectBollingerNoBounce(t *testing.T) {
	d := NewDetector(barsFromCloses([]float64{10, 10, 10, 10, 10, 10}), quietLogger())
	if event := d.DetectBollinger(3, 2.0); event != nil {
		t.Errorf("expected nil on a flat series, got %+v", event)
	}
}

func TestDetectAllStampsSymbol(t *testing.T) {
	// flat history with a final plunge trips the RSI detector only
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	closes[59] = 50
	d := NewDetector(barsFromCloses(closes), quietLogger())

	events := d.DetectAll("AAPL")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", events[0].Symbol)
	}
	if events[0].Strategy != "RSI" || events[0].Direction != models.SignalBuy {
		t.Errorf("got %s/%s, want RSI/buy", events[0].Strategy, events[0].Direction)
	}
}

func TestDetectAllShortHistory(t *testing.T) {
	d := NewDetector(barsFromCloses([]float64{100, 101, 102}), quietLogger())
	if events := d.DetectAll("MSFT"); len(events) != 0 {
		t.Errorf("expected no events on short history, got %d", len(events))
	}
}
