package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
	"github.com/wonny/smartvest/pkg/redis"
)

// Historical bars never change, so cached entries can live a long time.
const priceCacheTTL = 24 * time.Hour

// CachedPriceProvider wraps a PriceProvider with a Redis cache. Repeated
// runs over the same window hit the cache instead of the database; with
// Redis disabled every call passes straight through.
type CachedPriceProvider struct {
	next  contracts.PriceProvider
	cache *redis.Cache
}

// NewCachedPriceProvider creates the caching decorator.
func NewCachedPriceProvider(next contracts.PriceProvider, cache *redis.Cache) *CachedPriceProvider {
	return &CachedPriceProvider{next: next, cache: cache}
}

// ClosePrice implements contracts.PriceProvider.
func (c *CachedPriceProvider) ClosePrice(ctx context.Context, ticker string, date time.Time) (float64, error) {
	key := fmt.Sprintf("close:%s:%s", ticker, marketday.Normalize(date).Format("2006-01-02"))

	var price float64
	if found, err := c.cache.Get(ctx, key, &price); err == nil && found {
		return price, nil
	}

	price, err := c.next.ClosePrice(ctx, ticker, date)
	if err != nil {
		return 0, err
	}

	_ = c.cache.Set(ctx, key, price, priceCacheTTL)
	return price, nil
}

// PriceHistory implements contracts.PriceProvider.
func (c *CachedPriceProvider) PriceHistory(ctx context.Context, ticker string, end time.Time, lookbackDays int) ([]contracts.PriceBar, error) {
	key := fmt.Sprintf("history:%s:%s:%d", ticker, marketday.Normalize(end).Format("2006-01-02"), lookbackDays)

	var bars []contracts.PriceBar
	if found, err := c.cache.Get(ctx, key, &bars); err == nil && found {
		return bars, nil
	}

	bars, err := c.next.PriceHistory(ctx, ticker, end, lookbackDays)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, bars, priceCacheTTL)
	return bars, nil
}
