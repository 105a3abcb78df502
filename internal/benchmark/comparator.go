// Package benchmark compares a strategy's return against a market index over
// the same window, answering whether the strategy beat simply holding the
// index.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
)

// startScanDays bounds the forward search for the first index bar at or
// after the window start. A market open exists well within two weeks.
const startScanDays = 14

// Comparator measures index buy-and-hold return between two dates using the
// same price provider the simulation reads from.
type Comparator struct {
	prices contracts.PriceProvider
	symbol string
}

// NewComparator creates a comparator for the given index symbol (e.g. SPX).
func NewComparator(prices contracts.PriceProvider, symbol string) *Comparator {
	return &Comparator{prices: prices, symbol: symbol}
}

// Compare computes the index return over [start, end] and the strategy's
// excess over it. The start price is the first index close at or after
// start; the end price is the last close at or before end, so weekend
// boundaries resolve to real sessions.
func (c *Comparator) Compare(ctx context.Context, start, end time.Time, strategyReturnPct float64) (contracts.BenchmarkComparison, error) {
	startPrice, err := c.firstCloseAtOrAfter(ctx, start)
	if err != nil {
		return contracts.BenchmarkComparison{}, fmt.Errorf("benchmark %s start price: %w", c.symbol, err)
	}

	bars, err := c.prices.PriceHistory(ctx, c.symbol, marketday.Next(end), 1)
	if err != nil {
		return contracts.BenchmarkComparison{}, fmt.Errorf("benchmark %s end price: %w", c.symbol, err)
	}
	if len(bars) == 0 {
		return contracts.BenchmarkComparison{}, fmt.Errorf("benchmark %s has no bars before %s: %w", c.symbol, end.Format("2006-01-02"), contracts.ErrNoData)
	}
	endPrice := bars[len(bars)-1].Close

	benchReturn := (endPrice - startPrice) / startPrice * 100
	return contracts.BenchmarkComparison{
		Symbol:             c.symbol,
		BenchmarkReturnPct: benchReturn,
		AlphaPct:           strategyReturnPct - benchReturn,
	}, nil
}

func (c *Comparator) firstCloseAtOrAfter(ctx context.Context, start time.Time) (float64, error) {
	date := marketday.Normalize(start)
	for i := 0; i < startScanDays; i++ {
		if !marketday.IsTradingDay(date) {
			date = date.AddDate(0, 0, 1)
			continue
		}
		price, err := c.prices.ClosePrice(ctx, c.symbol, date)
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, contracts.ErrNotFound) {
			return 0, err
		}
		date = date.AddDate(0, 0, 1)
	}
	return 0, fmt.Errorf("no bar within %d days of %s: %w", startScanDays, start.Format("2006-01-02"), contracts.ErrNoData)
}
