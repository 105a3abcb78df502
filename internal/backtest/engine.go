package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/smartvest/internal/analytics"
	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/features"
	"github.com/wonny/smartvest/internal/marketday"
	"github.com/wonny/smartvest/pkg/logger"
)

// CandidateRanker produces the day's ranked entry candidates. Satisfied by
// scoring.Ranker.
type CandidateRanker interface {
	Rank(ctx context.Context, date time.Time, universe []string, minScore float64) ([]contracts.Candidate, error)
}

// BenchmarkComparator compares a strategy return against an index over the
// same window. Satisfied by benchmark.Comparator.
type BenchmarkComparator interface {
	Compare(ctx context.Context, start, end time.Time, strategyReturnPct float64) (contracts.BenchmarkComparison, error)
}

// Progress is one per-day update emitted to the progress hook.
type Progress struct {
	Date          time.Time `json:"date"`
	TradingDay    int       `json:"trading_day"`
	Equity        float64   `json:"equity"`
	Cash          float64   `json:"cash"`
	OpenPositions int       `json:"open_positions"`
	TradesClosed  int       `json:"trades_closed"`
}

// Engine replays history day by day and assembles the run result. One Run
// call owns its simulator; engines themselves are reusable across runs.
type Engine struct {
	ranker    CandidateRanker
	prices    contracts.PriceProvider
	analyzer  *analytics.Analyzer
	benchmark BenchmarkComparator
	log       *logger.Logger

	// OnProgress, when set, is called once per simulated trading day. It runs
	// on the engine goroutine, so it must return quickly.
	OnProgress func(Progress)
}

// NewEngine wires an engine. benchmark may be nil to skip index comparison.
func NewEngine(ranker CandidateRanker, prices contracts.PriceProvider, analyzer *analytics.Analyzer, benchmark BenchmarkComparator, log *logger.Logger) *Engine {
	return &Engine{
		ranker:    ranker,
		prices:    prices,
		analyzer:  analyzer,
		benchmark: benchmark,
		log:       log,
	}
}

// Run executes a full backtest over the universe. Each trading day closes
// matured positions first, then opens new ones from that day's ranking, then
// marks the portfolio to market. Non-trading days execute nothing. At the end
// of the window every remaining position is liquidated.
//
// Context cancellation is checked at the top of each simulated day; a
// cancelled run returns ctx.Err() and discards partial state.
func (e *Engine) Run(ctx context.Context, params Params, universe []string) (*contracts.BacktestResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	end := params.EndDate
	if end.IsZero() {
		end = time.Now()
	}
	end = marketday.Normalize(end)
	start := end.AddDate(0, 0, -params.Days)

	// The last day that can actually trade. Opening on it is pointless since
	// the position would liquidate the same day at the same price, so the
	// final day only closes.
	finalDay := end
	for !marketday.IsTradingDay(finalDay) {
		finalDay = finalDay.AddDate(0, 0, -1)
	}

	excluded, tradable, err := e.prescreen(ctx, start, universe)
	if err != nil {
		return nil, fmt.Errorf("prescreen universe: %w", err)
	}
	e.log.WithFields(map[string]interface{}{
		"start":    start.Format("2006-01-02"),
		"end":      end.Format("2006-01-02"),
		"universe": len(tradable),
		"excluded": len(excluded),
	}).Info("Starting backtest")

	sim := NewSimulator(e.prices, e.log, params.Capital)
	tradingDays := 0

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest cancelled on %s: %w", date.Format("2006-01-02"), err)
		}
		if !marketday.IsTradingDay(date) {
			continue
		}
		tradingDays++

		if err := sim.CloseMatured(ctx, date, params.HoldDays); err != nil {
			return nil, fmt.Errorf("close positions on %s: %w", date.Format("2006-01-02"), err)
		}

		if date.Before(finalDay) {
			candidates, err := e.ranker.Rank(ctx, date, tradable, params.MinScore)
			if err != nil {
				return nil, fmt.Errorf("rank candidates on %s: %w", date.Format("2006-01-02"), err)
			}
			sim.OpenPositions(date, candidates, params.MaxPositions)
		} else {
			if err := sim.ForceCloseAll(ctx, date); err != nil {
				return nil, fmt.Errorf("liquidate on %s: %w", date.Format("2006-01-02"), err)
			}
		}

		point, err := sim.MarkToMarket(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("mark to market on %s: %w", date.Format("2006-01-02"), err)
		}

		if e.OnProgress != nil {
			e.OnProgress(Progress{
				Date:          point.Date,
				TradingDay:    tradingDays,
				Equity:        point.Value,
				Cash:          point.Cash,
				OpenPositions: point.OpenPositions,
				TradesClosed:  len(sim.Trades()),
			})
		}
		if tradingDays%10 == 0 {
			e.log.WithFields(map[string]interface{}{
				"date":   point.Date.Format("2006-01-02"),
				"equity": point.Value,
				"open":   point.OpenPositions,
				"trades": len(sim.Trades()),
			}).Debug("backtest progress")
		}
	}

	equity := sim.EquityCurve()
	finalValue := params.Capital
	if len(equity) > 0 {
		finalValue = equity[len(equity)-1].Value
	}

	metrics := e.analyzer.Compute(sim.Trades(), equity, params.Capital)
	if metrics.InsufficientData {
		e.log.Warn("No trades executed during backtest window")
	}

	result := &contracts.BacktestResult{
		StartDate:       start,
		EndDate:         end,
		TradingDays:     tradingDays,
		StartingCapital: params.Capital,
		FinalValue:      finalValue,
		Trades:          sim.Trades(),
		EquityCurve:     equity,
		Metrics:         metrics,
		ExcludedTickers: excluded,
	}

	if e.benchmark != nil {
		cmp, err := e.benchmark.Compare(ctx, start, end, metrics.TotalReturnPct)
		if err != nil {
			if errors.Is(err, contracts.ErrProviderUnavailable) || errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("benchmark comparison: %w", err)
			}
			e.log.WithError(err).Warn("Benchmark comparison skipped")
		} else {
			result.Benchmark = cmp
		}
	}

	e.log.WithFields(map[string]interface{}{
		"trading_days": tradingDays,
		"trades":       len(result.Trades),
		"final_value":  finalValue,
		"return_pct":   metrics.TotalReturnPct,
	}).Info("Backtest complete")

	return result, nil
}

// prescreen drops tickers that cannot possibly produce a feature vector at
// the start date. They would fail every single day of the run, so excluding
// them up front saves a full window of wasted scoring and gives the caller an
// explicit reason per ticker.
func (e *Engine) prescreen(ctx context.Context, start time.Time, universe []string) (map[string]string, []string, error) {
	excluded := make(map[string]string)
	tradable := make([]string, 0, len(universe))

	for _, ticker := range universe {
		bars, err := e.prices.PriceHistory(ctx, ticker, start, features.MinBars)
		if err != nil {
			if errors.Is(err, contracts.ErrProviderUnavailable) || ctx.Err() != nil {
				return nil, nil, err
			}
			excluded[ticker] = fmt.Sprintf("history lookup failed: %v", err)
			continue
		}
		if len(bars) < features.MinBars {
			excluded[ticker] = fmt.Sprintf("only %d bars before start, need %d", len(bars), features.MinBars)
			continue
		}
		tradable = append(tradable, ticker)
	}

	if len(excluded) == 0 {
		return nil, tradable, nil
	}
	return excluded, tradable, nil
}
