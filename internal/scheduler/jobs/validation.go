// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/smartvest/internal/backtest"
	"github.com/wonny/smartvest/internal/strategy"
	"github.com/wonny/smartvest/pkg/logger"
)

// EngineFactory builds a fresh engine per validation run.
type EngineFactory func() *backtest.Engine

// UniverseProvider supplies the tracked ticker list.
type UniverseProvider interface {
	Universe(ctx context.Context) ([]string, error)
}

// ValidationJob reruns a backtest for every strategy variant after each
// trading day, so drift between live scores and validated performance shows
// up in the logs the next morning instead of at the end of the quarter.
type ValidationJob struct {
	engines    EngineFactory
	universe   UniverseProvider
	strategies map[string]strategy.Strategy
	window     int
	logger     *logger.Logger
}

// NewValidationJob creates the job. window is the lookback in calendar days
// for each validation run.
func NewValidationJob(engines EngineFactory, universe UniverseProvider, strategies map[string]strategy.Strategy, window int, log *logger.Logger) *ValidationJob {
	return &ValidationJob{
		engines:    engines,
		universe:   universe,
		strategies: strategies,
		window:     window,
		logger:     log,
	}
}

// Name implements scheduler.Job.
func (j *ValidationJob) Name() string { return "strategy-validation" }

// Schedule implements scheduler.Job: weeknights at 22:00, well after the
// day's data collection has landed.
func (j *ValidationJob) Schedule() string { return "0 22 * * 1-5" }

// Run implements scheduler.Job.
func (j *ValidationJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	universe, err := j.universe.Universe(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	for _, name := range strategy.Names(j.strategies) {
		params := j.strategies[name].Apply(backtest.DefaultParams())
		params.Days = j.window

		result, err := j.engines().Run(ctx, params, universe)
		if err != nil {
			return fmt.Errorf("validate strategy %s: %w", name, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"strategy":     name,
			"window_days":  j.window,
			"trades":       result.Metrics.TotalTrades,
			"return_pct":   result.Metrics.TotalReturnPct,
			"win_rate_pct": result.Metrics.WinRatePct,
			"sharpe":       result.Metrics.SharpeRatio,
			"alpha_pct":    result.Benchmark.AlphaPct,
		}).Info("Strategy validation complete")
	}
	return nil
}
