package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/marketdata"
	"github.com/yourusername/quantdesk/internal/models"
)

// minHistoryBars is the fewest daily closes the service will model
const minHistoryBars = 30

// Point is one forecast step with its confidence band
type Point struct {
	Date       string  `json:"date"`
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// AccuracyMetrics reports in-sample fit of the fitted model
type AccuracyMetrics struct {
	MAE     float64 `json:"mae"`
	MAPE    float64 `json:"mape"`
	RMSE    float64 `json:"rmse"`
	MSE     float64 `json:"mse"`
	R2Score float64 `json:"r2_score"`
}

// Forecast is the full response for one symbol and horizon
type Forecast struct {
	Symbol             string          `json:"symbol"`
	Points             []Point         `json:"forecast"`
	Metrics            AccuracyMetrics `json:"metrics"`
	HorizonDays        int             `json:"forecast_days"`
	Model              string          `json:"model"`
	LastHistoricalDate string          `json:"last_historical_date"`
	LastPrice          float64         `json:"last_price"`
	Trend              string          `json:"trend"`
}

type forecastRequest struct {
	Symbol      string        `json:"symbol"`
	HorizonDays int           `json:"horizon_days"`
	History     []historyStep `json:"history"`
}

type historyStep struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Client calls the external forecasting service over HTTP
type Client struct {
	http    *marketdata.RateLimitedHTTPClient
	baseURL string
	log     *logrus.Logger
}

// NewClient builds a forecasting client from the application config
func NewClient(cfg config.ForecastConfig, log *logrus.Logger) *Client {
	httpCfg := marketdata.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.RetryAttempts
	return &Client{
		http:    marketdata.NewRateLimitedHTTPClient(httpCfg, log),
		baseURL: cfg.URL,
		log:     log,
	}
}

// Predict submits the price history and returns the service forecast.
// Fewer than 30 bars is rejected before any network call.
func (c *Client) Predict(ctx context.Context, symbol string, series models.PriceSeries, horizonDays int) (*Forecast, error) {
	if len(series) < minHistoryBars {
		return nil, fmt.Errorf("%s has %d bars: %w", symbol, len(series), ErrInsufficientHistory)
	}

	request := forecastRequest{
		Symbol:      symbol,
		HorizonDays: horizonDays,
		History:     make([]historyStep, len(series)),
	}
	for i, bar := range series {
		request.History[i] = historyStep{
			Date:  bar.Date.Format("2006-01-02"),
			Close: bar.Close,
		}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding forecast request: %w", err)
	}

	resp, err := c.http.Post(ctx, c.baseURL+"/forecast", "application/json", bytes.NewReader(body))
	if err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Warn("Forecast service unreachable")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var result Forecast
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(result.Points) == 0 {
		return nil, fmt.Errorf("%w: empty forecast", ErrInvalidResponse)
	}

	result.Symbol = symbol
	result.HorizonDays = horizonDays
	if result.Trend == "" {
		result.Trend = classifyTrend(result.LastPrice, result.Points[len(result.Points)-1].Predicted)
	}
	return &result, nil
}

// Close releases client resources
func (c *Client) Close() error {
	return c.http.Close()
}

// classifyTrend labels the horizon-end move relative to the last close
func classifyTrend(lastPrice, endPredicted float64) string {
	if lastPrice <= 0 {
		return "sideways"
	}
	change := endPredicted/lastPrice - 1
	switch {
	case change > 0.02:
		return "bullish"
	case change < -0.02:
		return "bearish"
	default:
		return "sideways"
	}
}
