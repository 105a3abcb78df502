package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartvest/internal/classifier"
	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/providers"
	"github.com/wonny/smartvest/pkg/logger"
)

var testBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seedDrift inserts n daily bars with a constant daily growth factor.
func seedDrift(snap *providers.MemorySnapshot, ticker string, n int, daily float64) {
	for i := 0; i < n; i++ {
		snap.AddBar(contracts.PriceBar{
			Ticker: ticker,
			Date:   testBase.AddDate(0, 0, i),
			Close:  100 * math.Pow(daily, float64(i)),
			Volume: 1000,
		})
	}
}

func newTestRanker(snap *providers.MemorySnapshot) *Ranker {
	scorer := NewScorer(snap, snap, classifier.Fallback{}, logger.NewNop())
	return NewRanker(scorer, snap, logger.NewNop())
}

func TestScoreIgnoresDataOnOrAfterAsOf(t *testing.T) {
	asOf := testBase.AddDate(0, 0, 60)

	truncated := providers.NewMemorySnapshot()
	seedDrift(truncated, "AAPL", 60, 1.01)

	full := providers.NewMemorySnapshot()
	seedDrift(full, "AAPL", 60, 1.01)
	// A price collapse on the decision date and after. A point-in-time score
	// must not see it.
	full.AddBar(contracts.PriceBar{Ticker: "AAPL", Date: asOf, Close: 1, Volume: 1000})
	full.AddBar(contracts.PriceBar{Ticker: "AAPL", Date: asOf.AddDate(0, 0, 1), Close: 1, Volume: 1000})

	scoreTruncated, err := NewScorer(truncated, truncated, classifier.Fallback{}, logger.NewNop()).Score(context.Background(), "AAPL", asOf)
	require.NoError(t, err)
	scoreFull, err := NewScorer(full, full, classifier.Fallback{}, logger.NewNop()).Score(context.Background(), "AAPL", asOf)
	require.NoError(t, err)

	assert.Equal(t, scoreTruncated, scoreFull)
}

func TestScoreInsufficientHistory(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	seedDrift(snap, "AAPL", 10, 1.0)

	_, err := NewScorer(snap, snap, classifier.Fallback{}, logger.NewNop()).Score(context.Background(), "AAPL", testBase.AddDate(0, 0, 60))
	assert.True(t, errors.Is(err, contracts.ErrInsufficientHistory))
}

func TestRankFiltersByMinScore(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	seedDrift(snap, "UP", 61, 1.01)
	seedDrift(snap, "DOWN", 61, 0.99)
	asOf := testBase.AddDate(0, 0, 60)

	// Fallback maps the 10-day return onto [0, 100] around 50, so the rising
	// ticker lands above 50 and the falling one below.
	candidates, err := newTestRanker(snap).Rank(context.Background(), asOf, []string{"DOWN", "UP"}, 50)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "UP", candidates[0].Ticker)
	assert.Greater(t, candidates[0].Score, 50.0)
	assert.Greater(t, candidates[0].Price, 0.0)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	for _, tk := range []string{"ZEBRA", "ALPHA", "MID"} {
		seedDrift(snap, tk, 61, 1.01)
	}
	asOf := testBase.AddDate(0, 0, 60)
	ranker := newTestRanker(snap)

	first, err := ranker.Rank(context.Background(), asOf, []string{"ZEBRA", "ALPHA", "MID"}, 0)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Identical data means identical scores; order falls back to ticker.
	assert.Equal(t, "ALPHA", first[0].Ticker)
	assert.Equal(t, "MID", first[1].Ticker)
	assert.Equal(t, "ZEBRA", first[2].Ticker)

	// Concurrent scoring never changes the outcome across repeated runs.
	for i := 0; i < 10; i++ {
		again, err := ranker.Rank(context.Background(), asOf, []string{"MID", "ZEBRA", "ALPHA"}, 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRankSkipsTickersWithGaps(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	seedDrift(snap, "GOOD", 61, 1.01)
	seedDrift(snap, "THIN", 5, 1.01)

	candidates, err := newTestRanker(snap).Rank(context.Background(), testBase.AddDate(0, 0, 60), []string{"GOOD", "THIN", "GHOST"}, 0)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "GOOD", candidates[0].Ticker)
}

func TestRankRequiresPriceOnDecisionDate(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	seedDrift(snap, "AAPL", 60, 1.01)

	// History scores fine but the ticker did not trade on the decision date.
	candidates, err := newTestRanker(snap).Rank(context.Background(), testBase.AddDate(0, 0, 61), []string{"AAPL"}, 0)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

type failingPrices struct{}

func (failingPrices) ClosePrice(context.Context, string, time.Time) (float64, error) {
	return 0, fmt.Errorf("pool closed: %w", contracts.ErrProviderUnavailable)
}

func (failingPrices) PriceHistory(context.Context, string, time.Time, int) ([]contracts.PriceBar, error) {
	return nil, fmt.Errorf("pool closed: %w", contracts.ErrProviderUnavailable)
}

func TestRankAbortsOnProviderFailure(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	scorer := NewScorer(failingPrices{}, snap, classifier.Fallback{}, logger.NewNop())
	ranker := NewRanker(scorer, failingPrices{}, logger.NewNop())

	_, err := ranker.Rank(context.Background(), testBase.AddDate(0, 0, 60), []string{"AAPL", "MSFT"}, 0)
	assert.True(t, errors.Is(err, contracts.ErrProviderUnavailable))
}

func TestRecommendLimitsAndPricesFromLastClose(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	for _, tk := range []string{"AAA", "BBB", "CCC"} {
		seedDrift(snap, tk, 61, 1.01)
	}
	// asOf is two days past the last bar, like a weekend morning run.
	asOf := testBase.AddDate(0, 0, 62)

	recs, err := newTestRanker(snap).Recommend(context.Background(), asOf, []string{"AAA", "BBB", "CCC"}, 0, 2)
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "AAA", recs[0].Ticker)
	assert.Equal(t, "BBB", recs[1].Ticker)
	lastClose := 100 * math.Pow(1.01, 60)
	assert.InDelta(t, lastClose, recs[0].Price, 1e-9)
}
