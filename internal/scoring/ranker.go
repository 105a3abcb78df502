package scoring

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
	"github.com/wonny/smartvest/pkg/logger"
)

// defaultWorkers bounds concurrent per-ticker scoring within one day.
const defaultWorkers = 8

// Ranker scores a universe for one simulation day and returns qualifying
// candidates in deterministic order.
type Ranker struct {
	scorer  *Scorer
	prices  contracts.PriceProvider
	logger  *logger.Logger
	workers int
}

// NewRanker creates a ranker over the given scorer.
func NewRanker(scorer *Scorer, prices contracts.PriceProvider, log *logger.Logger) *Ranker {
	return &Ranker{
		scorer:  scorer,
		prices:  prices,
		logger:  log,
		workers: defaultWorkers,
	}
}

// Rank scores every ticker in universe as of date and returns candidates
// with score >= minScore plus a close price on that exact date, sorted by
// score descending with ties broken by ticker lexical order.
//
// Tickers are scored concurrently over immutable snapshot data; results are
// collected and sorted before the caller mutates any state, so parallelism
// never changes ordering or allocation. Per-ticker gaps are skipped;
// provider-level failures abort with an error.
func (r *Ranker) Rank(ctx context.Context, date time.Time, universe []string, minScore float64) ([]contracts.Candidate, error) {
	date = marketday.Normalize(date)

	var (
		mu         sync.Mutex
		candidates []contracts.Candidate
		fatalErr   error
	)

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for _, ticker := range universe {
		wg.Add(1)
		sem <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()

			cand, err := r.scoreOne(ctx, ticker, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if fatal(err) && fatalErr == nil {
					fatalErr = err
				}
				return
			}
			if cand.Score >= minScore {
				candidates = append(candidates, cand)
			}
		}(ticker)
	}
	wg.Wait()

	if fatalErr != nil {
		return nil, fatalErr
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})

	return candidates, nil
}

// scoreOne scores a single ticker and attaches that day's close as the
// candidate entry price. Any recoverable gap is reported as an error the
// caller drops.
func (r *Ranker) scoreOne(ctx context.Context, ticker string, date time.Time) (contracts.Candidate, error) {
	score, err := r.scorer.Score(ctx, ticker, date)
	if err != nil {
		if !fatal(err) {
			r.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"date":   date.Format("2006-01-02"),
			}).WithError(err).Debug("Skipping ticker for day")
		}
		return contracts.Candidate{}, err
	}

	price, err := r.prices.ClosePrice(ctx, ticker, date)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			// No bar on the decision date: a data gap for this ticker today.
			return contracts.Candidate{}, contracts.ErrNoData
		}
		return contracts.Candidate{}, err
	}

	return contracts.Candidate{Ticker: ticker, Score: score, Price: price}, nil
}
