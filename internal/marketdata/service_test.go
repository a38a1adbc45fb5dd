package marketdata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quantdesk/internal/models"
)

type fakeProvider struct {
	histories map[string]models.PriceSeries
	quotes    map[string]*Quote
	calls     int
}

func (f *fakeProvider) History(ctx context.Context, symbol, period string) (models.PriceSeries, error) {
	f.calls++
	if series, ok := f.histories[symbol]; ok {
		return series, nil
	}
	return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoData)
}

func (f *fakeProvider) HistoryRange(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	return f.History(ctx, symbol, "")
}

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	f.calls++
	if quote, ok := f.quotes[symbol]; ok {
		return quote, nil
	}
	return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoData)
}

func seriesOn(days []int, closes []float64) models.PriceSeries {
	series := make(models.PriceSeries, len(days))
	for i, d := range days {
		series[i] = models.Bar{
			Date:   time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC),
			Close:  closes[i],
			Volume: 1e6,
		}
	}
	return series
}

func TestHistoryCachesBySymbolAndPeriod(t *testing.T) {
	fake := &fakeProvider{histories: map[string]models.PriceSeries{
		"AAPL": seriesOn([]int{1, 2, 3}, []float64{100, 101, 102}),
	}}
	svc := NewService(fake, time.Minute, testLogger())

	first, err := svc.History(context.Background(), "AAPL", "1y")
	require.NoError(t, err)
	second, err := svc.History(context.Background(), "AAPL", "1y")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, first[0].Close, second[0].Close)

	hits, misses := svc.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	// a different period is a separate cache entry
	_, err = svc.History(context.Background(), "AAPL", "6mo")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestBulkQuotesSkipsFailures(t *testing.T) {
	fake := &fakeProvider{quotes: map[string]*Quote{
		"AAPL": {Symbol: "AAPL", Price: 190},
		"MSFT": {Symbol: "MSFT", Price: 410},
	}}
	svc := NewService(fake, time.Minute, testLogger())

	quotes := svc.BulkQuotes(context.Background(), []string{"AAPL", "NOPE", "MSFT"})
	require.Len(t, quotes, 2)
	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.Equal(t, "MSFT", quotes[1].Symbol)
}

func TestAlignedClosesInnerJoin(t *testing.T) {
	fake := &fakeProvider{histories: map[string]models.PriceSeries{
		"AAA": seriesOn([]int{1, 2, 3}, []float64{10, 11, 12}),
		"BBB": seriesOn([]int{2, 3, 4}, []float64{20, 21, 22}),
	}}
	svc := NewService(fake, time.Minute, testLogger())

	table, err := svc.AlignedCloses(context.Background(), []string{"AAA", "BBB"}, "1y")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, table.Assets)
	require.Len(t, table.Index, 2)
	assert.Equal(t, []float64{11, 12}, table.Column("AAA"))
	assert.Equal(t, []float64{20, 21}, table.Column("BBB"))
}

func TestAlignedClosesFailsOnMissingSymbol(t *testing.T) {
	fake := &fakeProvider{histories: map[string]models.PriceSeries{
		"AAA": seriesOn([]int{1, 2}, []float64{10, 11}),
	}}
	svc := NewService(fake, time.Minute, testLogger())

	_, err := svc.AlignedCloses(context.Background(), []string{"AAA", "MISSING"}, "1y")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestAlignedClosesFailsOnDisjointCalendars(t *testing.T) {
	fake := &fakeProvider{histories: map[string]models.PriceSeries{
		"AAA": seriesOn([]int{1, 2}, []float64{10, 11}),
		"BBB": seriesOn([]int{10, 11}, []float64{20, 21}),
	}}
	svc := NewService(fake, time.Minute, testLogger())

	_, err := svc.AlignedCloses(context.Background(), []string{"AAA", "BBB"}, "1y")
	assert.ErrorIs(t, err, models.ErrNoData)
}
