package forecast

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/models"
)

// Forecaster is the operation the rest of the platform depends on
type Forecaster interface {
	Predict(ctx context.Context, symbol string, series models.PriceSeries, horizonDays int) (*Forecast, error)
}

// CachedClient memoizes forecasts by (symbol, horizon). Model fits are
// expensive upstream, so hits are served without touching the service.
type CachedClient struct {
	client Forecaster
	cache  *gocache.Cache
	ttl    time.Duration
	log    *logrus.Logger
}

// NewCachedClient builds the production client with a TTL cache in front
func NewCachedClient(cfg config.ForecastConfig, log *logrus.Logger) *CachedClient {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &CachedClient{
		client: NewClient(cfg, log),
		cache:  gocache.New(ttl, 2*ttl),
		ttl:    ttl,
		log:    log,
	}
}

// NewCachedClientWith wraps an existing forecaster, used in tests
func NewCachedClientWith(client Forecaster, ttl time.Duration, log *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  gocache.New(ttl, 2*ttl),
		ttl:    ttl,
		log:    log,
	}
}

// Predict returns a cached forecast when fresh, otherwise calls through
func (c *CachedClient) Predict(ctx context.Context, symbol string, series models.PriceSeries, horizonDays int) (*Forecast, error) {
	key := fmt.Sprintf("%s:%d", symbol, horizonDays)
	if cached, found := c.cache.Get(key); found {
		return cached.(*Forecast), nil
	}

	result, err := c.client.Predict(ctx, symbol, series, horizonDays)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, result, c.ttl)
	return result, nil
}

// ClearCache discards all cached forecasts
func (c *CachedClient) ClearCache() {
	c.cache.Flush()
}
