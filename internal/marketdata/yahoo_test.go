package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quantdesk/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	return NewRateLimitedHTTPClient(cfg, testLogger())
}

func chartJSON(timestamps []int64, closes, volumes []float64) string {
	ts, cl, vol := "", "", ""
	for i := range timestamps {
		if i > 0 {
			ts += ","
			cl += ","
			vol += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		cl += fmt.Sprintf("%g", closes[i])
		vol += fmt.Sprintf("%g", volumes[i])
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"TEST"},"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		ts, cl, cl, cl, cl, vol)
}

func dayStamps(n int) []int64 {
	base := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	out := make([]int64, n)
	for i := range out {
		out[i] = base.AddDate(0, 0, i).Unix()
	}
	return out
}

func TestHistoryParsesChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON(dayStamps(3), []float64{100, 101, 103}, []float64{1e6, 2e6, 3e6}))
	}))
	defer server.Close()

	provider := NewYahooProvider(testHTTPClient(), server.URL, testLogger())
	series, err := provider.History(context.Background(), "AAPL", "1y")
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, 100.0, series[0].Close)
	assert.Equal(t, 103.0, series[2].Close)
	assert.True(t, series[1].Date.After(series[0].Date))
}

func TestHistoryRejectsInvalidPeriod(t *testing.T) {
	provider := NewYahooProvider(testHTTPClient(), "http://unused", testLogger())
	_, err := provider.History(context.Background(), "AAPL", "7y")
	assert.Error(t, err)
}

func TestHistoryDropsNullCloses(t *testing.T) {
	stamps := dayStamps(3)
	body := fmt.Sprintf(`{"chart":{"result":[{"meta":{},"timestamp":[%d,%d,%d],"indicators":{"quote":[{"open":[100,null,102],"high":[100,null,102],"low":[100,null,102],"close":[100,null,102],"volume":[1000000,null,1000000]}]}}],"error":null}}`,
		stamps[0], stamps[1], stamps[2])
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	provider := NewYahooProvider(testHTTPClient(), server.URL, testLogger())
	series, err := provider.History(context.Background(), "AAPL", "1y")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 102.0, series[1].Close)
}

func TestHistoryUnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer server.Close()

	provider := NewYahooProvider(testHTTPClient(), server.URL, testLogger())
	_, err := provider.History(context.Background(), "NOPE", "1y")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestHistoryRejectsNegativePrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON(dayStamps(2), []float64{100, -5}, []float64{1e6, 1e6}))
	}))
	defer server.Close()

	provider := NewYahooProvider(testHTTPClient(), server.URL, testLogger())
	_, err := provider.History(context.Background(), "BAD", "1y")
	assert.Error(t, err)
}

func TestQuoteComputesChange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON(dayStamps(2), []float64{200, 210}, []float64{1e6, 1.5e6}))
	}))
	defer server.Close()

	provider := NewYahooProvider(testHTTPClient(), server.URL, testLogger())
	quote, err := provider.Quote(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", quote.Symbol)
	assert.Equal(t, 210.0, quote.Price)
	assert.InDelta(t, 10.0, quote.Change, 1e-9)
	assert.InDelta(t, 5.0, quote.ChangePercent, 1e-9)
}

func TestHistoryRangeValidatesBounds(t *testing.T) {
	provider := NewYahooProvider(testHTTPClient(), "http://unused", testLogger())
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := provider.HistoryRange(context.Background(), "AAPL", start, start)
	assert.Error(t, err)
}
