package marketdata

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/models"
)

// Service fronts a Provider with a TTL cache and adds multi-symbol
// convenience operations. One failing symbol never fails a batch.
type Service struct {
	provider Provider
	cache    *gocache.Cache
	ttl      time.Duration
	log      *logrus.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewService wraps a provider with caching
func NewService(provider Provider, ttl time.Duration, log *logrus.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    gocache.New(ttl, 2*ttl),
		ttl:      ttl,
		log:      log,
	}
}

// History returns daily bars for a lookback period, cached per
// (symbol, period)
func (s *Service) History(ctx context.Context, symbol, period string) (models.PriceSeries, error) {
	key := fmt.Sprintf("history:%s:%s", symbol, period)
	if cached, found := s.cache.Get(key); found {
		s.hits.Add(1)
		return cached.(models.PriceSeries), nil
	}
	s.misses.Add(1)

	series, err := s.provider.History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, series, s.ttl)
	return series, nil
}

// HistoryRange returns daily bars between two instants, cached per
// (symbol, start, end)
func (s *Service) HistoryRange(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	key := fmt.Sprintf("range:%s:%d:%d", symbol, start.Unix(), end.Unix())
	if cached, found := s.cache.Get(key); found {
		s.hits.Add(1)
		return cached.(models.PriceSeries), nil
	}
	s.misses.Add(1)

	series, err := s.provider.HistoryRange(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, series, s.ttl)
	return series, nil
}

// Quote returns a price snapshot, cached per symbol
func (s *Service) Quote(ctx context.Context, symbol string) (*Quote, error) {
	key := "quote:" + symbol
	if cached, found := s.cache.Get(key); found {
		s.hits.Add(1)
		return cached.(*Quote), nil
	}
	s.misses.Add(1)

	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, quote, s.ttl)
	return quote, nil
}

// BulkQuotes fetches snapshots for many symbols, skipping failures
func (s *Service) BulkQuotes(ctx context.Context, symbols []string) []Quote {
	quotes := make([]Quote, 0, len(symbols))
	for _, symbol := range symbols {
		quote, err := s.Quote(ctx, symbol)
		if err != nil {
			s.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Warn("Skipping symbol in bulk quote")
			continue
		}
		quotes = append(quotes, *quote)
	}
	return quotes
}

// MultipleHistories fetches bars for many symbols, skipping failures
func (s *Service) MultipleHistories(ctx context.Context, symbols []string, period string) map[string]models.PriceSeries {
	out := make(map[string]models.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		series, err := s.History(ctx, symbol, period)
		if err != nil {
			s.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Warn("Skipping symbol in batch history")
			continue
		}
		out[symbol] = series
	}
	return out
}

// AlignedCloses fetches histories for all symbols and inner-joins them on
// their trading days. Every requested symbol must resolve.
func (s *Service) AlignedCloses(ctx context.Context, symbols []string, period string) (*models.AlignedTable, error) {
	series := make(map[string]models.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		data, err := s.History(ctx, symbol, period)
		if err != nil {
			return nil, fmt.Errorf("aligning %s: %w", symbol, err)
		}
		series[symbol] = data
	}
	table := models.AlignSeries(series)
	if len(table.Index) == 0 {
		return nil, fmt.Errorf("no overlapping trading days across %d symbols: %w", len(symbols), models.ErrNoData)
	}
	return table, nil
}

// ValidateSymbol reports whether a symbol resolves to any recent data
func (s *Service) ValidateSymbol(ctx context.Context, symbol string) bool {
	_, err := s.Quote(ctx, symbol)
	return err == nil
}

// CacheStats returns cumulative cache hits and misses
func (s *Service) CacheStats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// FlushCache discards all cached entries
func (s *Service) FlushCache() {
	s.cache.Flush()
}
