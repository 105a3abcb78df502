// Package providers implements the data-provider contracts: a Postgres
// repository over the historical snapshot, an in-memory snapshot for tests
// and pre-loaded runs, and decorators for caching and rate limiting.
package providers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
)

// MemorySnapshot is an in-memory PriceProvider + NewsProvider. Load it fully
// before simulation starts; reads are then safe from any number of
// concurrent runs. All dates are normalized on insert, so a bar stored with
// a time-of-day component is still found by a date-only lookup.
type MemorySnapshot struct {
	bars     map[string][]contracts.PriceBar
	articles map[string][]contracts.Article
}

// NewMemorySnapshot creates an empty snapshot.
func NewMemorySnapshot() *MemorySnapshot {
	return &MemorySnapshot{
		bars:     make(map[string][]contracts.PriceBar),
		articles: make(map[string][]contracts.Article),
	}
}

// AddBar inserts one daily bar, normalizing its date. Later inserts for the
// same ticker/date replace earlier ones.
func (m *MemorySnapshot) AddBar(bar contracts.PriceBar) {
	bar.Date = marketday.Normalize(bar.Date)

	series := m.bars[bar.Ticker]
	for i, b := range series {
		if b.Date.Equal(bar.Date) {
			series[i] = bar
			return
		}
	}

	series = append(series, bar)
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	m.bars[bar.Ticker] = series
}

// AddBars inserts a batch of bars.
func (m *MemorySnapshot) AddBars(bars []contracts.PriceBar) {
	for _, b := range bars {
		m.AddBar(b)
	}
}

// AddArticle inserts one news article. PublishedAt keeps its full timestamp;
// articles are filtered by time range, not by exact date.
func (m *MemorySnapshot) AddArticle(a contracts.Article) {
	m.articles[a.Ticker] = append(m.articles[a.Ticker], a)
	sort.Slice(m.articles[a.Ticker], func(i, j int) bool {
		return m.articles[a.Ticker][i].PublishedAt.Before(m.articles[a.Ticker][j].PublishedAt)
	})
}

// Tickers returns all tickers with at least one bar, sorted.
func (m *MemorySnapshot) Tickers() []string {
	out := make([]string, 0, len(m.bars))
	for t := range m.bars {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ClosePrice implements contracts.PriceProvider.
func (m *MemorySnapshot) ClosePrice(_ context.Context, ticker string, date time.Time) (float64, error) {
	date = marketday.Normalize(date)
	for _, b := range m.bars[ticker] {
		if b.Date.Equal(date) {
			return b.Close, nil
		}
	}
	return 0, fmt.Errorf("%s on %s: %w", ticker, date.Format("2006-01-02"), contracts.ErrNotFound)
}

// PriceHistory implements contracts.PriceProvider: up to lookbackDays bars
// strictly before end, ascending.
func (m *MemorySnapshot) PriceHistory(_ context.Context, ticker string, end time.Time, lookbackDays int) ([]contracts.PriceBar, error) {
	end = marketday.Normalize(end)

	series := m.bars[ticker]
	cut := sort.Search(len(series), func(i int) bool { return !series[i].Date.Before(end) })
	before := series[:cut]

	if len(before) > lookbackDays {
		before = before[len(before)-lookbackDays:]
	}

	out := make([]contracts.PriceBar, len(before))
	copy(out, before)
	return out, nil
}

// Articles implements contracts.NewsProvider: articles with start <=
// PublishedAt <= end, ascending.
func (m *MemorySnapshot) Articles(_ context.Context, ticker string, start, end time.Time) ([]contracts.Article, error) {
	var out []contracts.Article
	for _, a := range m.articles[ticker] {
		if !a.PublishedAt.Before(start) && !a.PublishedAt.After(end) {
			out = append(out, a)
		}
	}
	return out, nil
}
