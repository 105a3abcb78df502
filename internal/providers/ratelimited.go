package providers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/smartvest/internal/contracts"
)

// RateLimitedPriceProvider throttles calls to a network-backed provider.
// Each call waits for a token, so a full-universe scoring pass spreads its
// requests instead of bursting past an upstream limit. Waits respect
// context cancellation.
type RateLimitedPriceProvider struct {
	next    contracts.PriceProvider
	limiter *rate.Limiter
}

// NewRateLimitedPriceProvider allows up to rps requests per second with the
// given burst.
func NewRateLimitedPriceProvider(next contracts.PriceProvider, rps float64, burst int) *RateLimitedPriceProvider {
	return &RateLimitedPriceProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// ClosePrice implements contracts.PriceProvider.
func (r *RateLimitedPriceProvider) ClosePrice(ctx context.Context, ticker string, date time.Time) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.ClosePrice(ctx, ticker, date)
}

// PriceHistory implements contracts.PriceProvider.
func (r *RateLimitedPriceProvider) PriceHistory(ctx context.Context, ticker string, end time.Time, lookbackDays int) ([]contracts.PriceBar, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.PriceHistory(ctx, ticker, end, lookbackDays)
}
