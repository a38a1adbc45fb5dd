package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordRequest(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordRequest("/api/backtest", "200", 0.05)
	})
}

func TestRecordBacktest(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBacktest("momentum", 0.01)
		RecordSignal("rsi", "buy")
		RecordPaperTrade("buy")
		RecordMarketDataError()
		RecordOptimizerFallback()
		RecordReport(12.5)
	})
}

func TestUpdateCacheHitRatio(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		UpdateCacheHitRatio(0, 0)
		UpdateCacheHitRatio(3, 1)
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	InitRegistry()
	assert.NotNil(t, Handler())
}
