package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/models"
)

// Quote is a point-in-time price snapshot for one symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Provider fetches historical bars and quotes for equity symbols
type Provider interface {
	History(ctx context.Context, symbol, period string) (models.PriceSeries, error)
	HistoryRange(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error)
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

var validPeriods = map[string]bool{
	"1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "max": true,
}

// ValidPeriod reports whether a lookback period string is supported
func ValidPeriod(period string) bool {
	return validPeriods[period]
}

// YahooProvider reads daily bars from the v8 chart API
type YahooProvider struct {
	http    *RateLimitedHTTPClient
	baseURL string
	log     *logrus.Logger
}

// NewYahooProvider creates a chart API provider
func NewYahooProvider(client *RateLimitedHTTPClient, baseURL string, log *logrus.Logger) *YahooProvider {
	return &YahooProvider{http: client, baseURL: baseURL, log: log}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// History fetches daily bars for a lookback period such as "1y"
func (p *YahooProvider) History(ctx context.Context, symbol, period string) (models.PriceSeries, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period %q", period)
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		p.baseURL, url.PathEscape(symbol), period)
	return p.fetchChart(ctx, symbol, endpoint)
}

// HistoryRange fetches daily bars between two instants
func (p *YahooProvider) HistoryRange(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("end %s is not after start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		p.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix())
	return p.fetchChart(ctx, symbol, endpoint)
}

// Quote derives a snapshot from the last week of bars
func (p *YahooProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d",
		p.baseURL, url.PathEscape(symbol))
	series, err := p.fetchChart(ctx, symbol, endpoint)
	if err != nil {
		return nil, err
	}
	last := series[len(series)-1]
	quote := &Quote{
		Symbol:    symbol,
		Price:     last.Close,
		Volume:    last.Volume,
		Timestamp: last.Date,
	}
	if len(series) >= 2 {
		prev := series[len(series)-2].Close
		quote.Change = last.Close - prev
		if prev != 0 {
			quote.ChangePercent = quote.Change / prev * 100
		}
	}
	return quote, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, endpoint string) (models.PriceSeries, error) {
	resp, err := p.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding %s chart: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s: %w", symbol, parsed.Chart.Error.Code, models.ErrNoData)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: empty chart result: %w", symbol, models.ErrNoData)
	}

	series := barsFromChart(parsed.Chart.Result[0])
	if len(series) == 0 {
		p.log.WithField("symbol", symbol).Warn("No data returned")
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoData)
	}

	series, err = cleanSeries(series, symbol, p.log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	p.log.WithFields(logrus.Fields{"symbol": symbol, "bars": len(series)}).Info("Fetched and validated price data")
	return series, nil
}

// barsFromChart converts parallel chart columns into bars, dropping rows
// with a missing close
func barsFromChart(result chartResult) models.PriceSeries {
	if len(result.Indicators.Quote) == 0 {
		return models.PriceSeries{}
	}
	quote := result.Indicators.Quote[0]
	series := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		series = append(series, bar)
	}
	return series
}
