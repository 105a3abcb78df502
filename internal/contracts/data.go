package contracts

import (
	"context"
	"time"
)

// PriceBar is a single daily OHLCV bar. Date is normalized to UTC midnight
// at the provider boundary (see marketday.Normalize).
type PriceBar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Article is a news item with an optional sentiment score in [-1, 1].
// Sentiment is nil when the article has not been scored yet.
type Article struct {
	Ticker      string    `json:"ticker"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   *float64  `json:"sentiment,omitempty"`
}

// PriceProvider serves daily prices from a read-only historical snapshot.
// Implementations must be safe for concurrent use; simulation runs never
// mutate price data, so one provider may back many concurrent runs.
type PriceProvider interface {
	// ClosePrice returns the close for an exact trading date.
	// Returns ErrNotFound when no bar exists for that date.
	ClosePrice(ctx context.Context, ticker string, date time.Time) (float64, error)

	// PriceHistory returns up to lookbackDays bars dated strictly before end,
	// in ascending date order. The exclusive end is what keeps feature
	// computation free of lookahead.
	PriceHistory(ctx context.Context, ticker string, end time.Time, lookbackDays int) ([]PriceBar, error)
}

// NewsProvider serves historical news articles. Callers filter to
// PublishedAt < asOf before feeding articles into feature computation.
type NewsProvider interface {
	Articles(ctx context.Context, ticker string, start, end time.Time) ([]Article, error)
}

// Classifier scores a feature vector, returning the probability of a
// positive forward outcome in [0, 1].
type Classifier interface {
	PredictProba(features []float64) (float64, error)
}
