package commands

import (
	"fmt"
	"math"

	"github.com/wonny/smartvest/internal/backtest"
	"github.com/wonny/smartvest/internal/contracts"
)

const rule = "───────────────────────────────────────────────────────────"

func formatProfitFactor(m contracts.Metrics) string {
	switch {
	case m.InsufficientData:
		return "n/a"
	case math.IsInf(m.ProfitFactor, 1):
		return "inf"
	default:
		return fmt.Sprintf("%.2f", m.ProfitFactor)
	}
}

func printBacktestResult(params backtest.Params, r *contracts.BacktestResult) {
	m := r.Metrics

	fmt.Println()
	fmt.Println(rule)
	fmt.Println("  Backtest Result")
	fmt.Println(rule)
	fmt.Printf("  Period        : %s ~ %s (%d trading days)\n",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"), r.TradingDays)
	fmt.Printf("  Hold / Cap    : %d days / %d positions, min score %.0f\n",
		params.HoldDays, params.MaxPositions, params.MinScore)
	fmt.Printf("  Capital       : %.2f -> %.2f\n", r.StartingCapital, r.FinalValue)
	fmt.Printf("  Total return  : %+.2f%%\n", m.TotalReturnPct)
	if r.Benchmark.Symbol != "" {
		fmt.Printf("  Benchmark     : %s %+.2f%%  (alpha %+.2f%%)\n",
			r.Benchmark.Symbol, r.Benchmark.BenchmarkReturnPct, r.Benchmark.AlphaPct)
	}
	fmt.Println(rule)

	if m.InsufficientData {
		fmt.Println("  No trades executed in the window; statistics unavailable.")
		fmt.Println(rule)
		return
	}

	fmt.Printf("  Trades        : %d (%d wins / %d losses, %.1f%% win rate)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRatePct)
	fmt.Printf("  Avg trade     : %+.2f%%  (win %+.2f%% / loss %+.2f%%)\n",
		m.AvgTradePct, m.AvgWinPct, m.AvgLossPct)
	fmt.Printf("  Best / Worst  : %+.2f%% / %+.2f%%\n", m.BestTradePct, m.WorstTradePct)
	fmt.Printf("  Profit factor : %s\n", formatProfitFactor(m))
	fmt.Printf("  Sharpe        : %.2f  (Sortino %.2f)\n", m.SharpeRatio, m.SortinoRatio)
	fmt.Printf("  Max drawdown  : %.2f%% (%d days)\n", m.MaxDrawdownPct, m.MaxDrawdownDays)
	fmt.Printf("  Avg hold      : %.1f trading days\n", m.AvgHoldDays)
	fmt.Println(rule)

	if len(r.ExcludedTickers) > 0 {
		fmt.Printf("  Excluded %d tickers (insufficient history before start)\n", len(r.ExcludedTickers))
		fmt.Println(rule)
	}
}

func printRecommendations(recs []contracts.Candidate, minScore float64) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("  Recommendations (min score %.0f)\n", minScore)
	fmt.Println(rule)
	if len(recs) == 0 {
		fmt.Println("  No candidates above threshold today.")
		fmt.Println(rule)
		return
	}
	for i, c := range recs {
		fmt.Printf("  %2d. %-8s score %6.2f  last close %10.2f\n", i+1, c.Ticker, c.Score, c.Price)
	}
	fmt.Println(rule)
}
