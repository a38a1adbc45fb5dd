package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func historySeries(n int) models.PriceSeries {
	series := make(models.PriceSeries, n)
	for i := range series {
		series[i] = models.Bar{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close: 100 + float64(i),
		}
	}
	return series
}

func serviceConfig(url string) config.ForecastConfig {
	return config.ForecastConfig{
		URL:                   url,
		RequestTimeoutSeconds: 5,
		RetryAttempts:         0,
		CacheTTLSeconds:       60,
		DefaultHorizonDays:    30,
	}
}

func TestPredictParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forecast", r.URL.Path)
		var req forecastRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL", req.Symbol)
		assert.Equal(t, 30, req.HorizonDays)
		assert.Len(t, req.History, 40)

		fmt.Fprint(w, `{
			"forecast": [
				{"date": "2024-02-10", "predicted": 142.5, "lower_bound": 138.0, "upper_bound": 147.0},
				{"date": "2024-02-11", "predicted": 143.1, "lower_bound": 138.4, "upper_bound": 147.8}
			],
			"metrics": {"mae": 1.2, "mape": 0.9, "rmse": 1.6, "mse": 2.56, "r2_score": 0.94},
			"model": "Prophet",
			"last_historical_date": "2024-02-09",
			"last_price": 139.0
		}`)
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), testLogger())
	result, err := client.Predict(context.Background(), "AAPL", historySeries(40), 30)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, 30, result.HorizonDays)
	require.Len(t, result.Points, 2)
	assert.Equal(t, 142.5, result.Points[0].Predicted)
	assert.Equal(t, 0.94, result.Metrics.R2Score)
	// 143.1 vs 139.0 is just under +3%
	assert.Equal(t, "bullish", result.Trend)
}

func TestPredictRejectsShortHistory(t *testing.T) {
	client := NewClient(serviceConfig("http://unused"), testLogger())
	_, err := client.Predict(context.Background(), "AAPL", historySeries(10), 30)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestPredictServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), testLogger())
	_, err := client.Predict(context.Background(), "AAPL", historySeries(40), 30)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestPredictEmptyForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"forecast": [], "model": "Prophet"}`)
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), testLogger())
	_, err := client.Predict(context.Background(), "AAPL", historySeries(40), 30)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, "bullish", classifyTrend(100, 105))
	assert.Equal(t, "bearish", classifyTrend(100, 95))
	assert.Equal(t, "sideways", classifyTrend(100, 101))
	assert.Equal(t, "sideways", classifyTrend(0, 50))
}

type countingForecaster struct {
	calls int
}

func (c *countingForecaster) Predict(ctx context.Context, symbol string, series models.PriceSeries, horizonDays int) (*Forecast, error) {
	c.calls++
	return &Forecast{
		Symbol:      symbol,
		HorizonDays: horizonDays,
		Points:      []Point{{Date: "2024-02-10", Predicted: 100}},
	}, nil
}

func TestCachedClientMemoizesByHorizon(t *testing.T) {
	counting := &countingForecaster{}
	cached := NewCachedClientWith(counting, time.Minute, testLogger())

	series := historySeries(40)
	_, err := cached.Predict(context.Background(), "AAPL", series, 30)
	require.NoError(t, err)
	_, err = cached.Predict(context.Background(), "AAPL", series, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls)

	_, err = cached.Predict(context.Background(), "AAPL", series, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls)
}
