// Package scoring turns historical data into ranked entry candidates.
//
// The scorer is point-in-time: every input it feeds into the feature
// pipeline is timestamped strictly before the as-of date, so a score
// computed for a past day is identical whether or not later data exists in
// the snapshot.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/features"
	"github.com/wonny/smartvest/internal/marketday"
	"github.com/wonny/smartvest/pkg/logger"
)

const (
	// priceLookbackDays bounds the bar window fed to the feature pipeline.
	priceLookbackDays = 60
	// newsLookbackDays bounds the article window in calendar days.
	newsLookbackDays = 30
)

// Scorer scores a single ticker as of a decision date.
type Scorer struct {
	prices contracts.PriceProvider
	news   contracts.NewsProvider
	model  contracts.Classifier
	logger *logger.Logger
}

// NewScorer creates a scorer over the given providers and model.
func NewScorer(prices contracts.PriceProvider, news contracts.NewsProvider, model contracts.Classifier, log *logger.Logger) *Scorer {
	return &Scorer{
		prices: prices,
		news:   news,
		model:  model,
		logger: log,
	}
}

// Score returns a confidence score in [0, 100] for ticker as of asOf.
//
// Returns ErrInsufficientHistory when fewer than features.MinBars bars exist
// before asOf, and wraps provider errors so callers can distinguish
// per-ticker gaps from fatal provider failures.
func (s *Scorer) Score(ctx context.Context, ticker string, asOf time.Time) (float64, error) {
	asOf = marketday.Normalize(asOf)

	bars, err := s.prices.PriceHistory(ctx, ticker, asOf, priceLookbackDays)
	if err != nil {
		return 0, fmt.Errorf("price history for %s: %w", ticker, err)
	}
	if len(bars) < features.MinBars {
		return 0, contracts.ErrInsufficientHistory
	}

	newsStart := asOf.AddDate(0, 0, -newsLookbackDays)
	articles, err := s.news.Articles(ctx, ticker, newsStart, asOf)
	if err != nil {
		return 0, fmt.Errorf("articles for %s: %w", ticker, err)
	}

	// The provider range is inclusive; only articles published strictly
	// before the decision date may influence the score.
	known := articles[:0:0]
	for _, a := range articles {
		if a.PublishedAt.Before(asOf) {
			known = append(known, a)
		}
	}

	vec, err := features.Compute(bars, known)
	if err != nil {
		return 0, err
	}

	p, err := s.model.PredictProba(vec.Values())
	if err != nil {
		return 0, fmt.Errorf("classify %s: %w", ticker, err)
	}

	return p * 100, nil
}

// fatal reports whether a per-ticker scoring error must abort the whole run
// instead of skipping the ticker for the day.
func fatal(err error) bool {
	return errors.Is(err, contracts.ErrProviderUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
