package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
)

// Recommend is the live path: it scores the universe as of asOf (normally
// today) and returns up to limit candidates above minScore, priced at the
// last known close. It shares the exact scoring pipeline with the backtest,
// which is the point: what the backtest validated is what goes out.
func (r *Ranker) Recommend(ctx context.Context, asOf time.Time, universe []string, minScore float64, limit int) ([]contracts.Candidate, error) {
	asOf = marketday.Normalize(asOf)

	var recs []contracts.Candidate
	for _, ticker := range universe {
		score, err := r.scorer.Score(ctx, ticker, asOf)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			continue
		}
		if score < minScore {
			continue
		}

		bars, err := r.prices.PriceHistory(ctx, ticker, asOf, 1)
		if err != nil || len(bars) == 0 {
			if err != nil && fatal(err) {
				return nil, err
			}
			continue
		}

		recs = append(recs, contracts.Candidate{
			Ticker: ticker,
			Score:  score,
			Price:  bars[len(bars)-1].Close,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Ticker < recs[j].Ticker
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
