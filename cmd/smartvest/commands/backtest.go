package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/smartvest/internal/backtest"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a point-in-time backtest",
	Long: `Replays the scoring strategy over historical data and simulates a
portfolio day by day. Every decision uses only data available before the
simulated date.

Examples:
  smartvest backtest --days 90 --capital 10000
  smartvest backtest --strategy dip --end 2024-06-28
  smartvest backtest --tickers AAPL,MSFT,NVDA --min-score 80 --json`,
	RunE: runBacktest,
}

var (
	btDays         int
	btCapital      float64
	btHoldDays     int
	btMaxPositions int
	btMinScore     float64
	btStrategy     string
	btEnd          string
	btTickers      []string
	btJSON         bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().IntVar(&btDays, "days", 90, "simulation window in calendar days (30-365)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 10_000, "starting capital (1,000-1,000,000)")
	backtestCmd.Flags().IntVar(&btHoldDays, "hold-days", 0, "hold period in trading days (1-60, default per strategy)")
	backtestCmd.Flags().IntVar(&btMaxPositions, "max-positions", 0, "max concurrent positions (1-10)")
	backtestCmd.Flags().Float64Var(&btMinScore, "min-score", -1, "entry score threshold (0-100)")
	backtestCmd.Flags().StringVar(&btStrategy, "strategy", "", "strategy variant name (see config/strategy)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "end date YYYY-MM-DD (default today)")
	backtestCmd.Flags().StringSliceVar(&btTickers, "tickers", nil, "restrict universe to these tickers")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "emit the full result as JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	params := backtest.DefaultParams()
	if btStrategy != "" {
		variant, ok := d.strategies[btStrategy]
		if !ok {
			return fmt.Errorf("unknown strategy %q", btStrategy)
		}
		params = variant.Apply(params)
	}
	params.Days = btDays
	params.Capital = btCapital
	if btHoldDays > 0 {
		params.HoldDays = btHoldDays
	}
	if btMaxPositions > 0 {
		params.MaxPositions = btMaxPositions
	}
	if btMinScore >= 0 {
		params.MinScore = btMinScore
	}
	if btEnd != "" {
		end, err := time.Parse("2006-01-02", btEnd)
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", btEnd, err)
		}
		params.EndDate = end
	}

	universe := btTickers
	if len(universe) == 0 {
		universe, err = d.provider.Universe(cmd.Context())
		if err != nil {
			return fmt.Errorf("load universe: %w", err)
		}
	}

	engine := d.newEngine()
	if !btJSON {
		engine.OnProgress = func(p backtest.Progress) {
			if p.TradingDay%10 == 0 {
				fmt.Printf("  %s  equity %12.2f  open %d  trades %d\n",
					p.Date.Format("2006-01-02"), p.Equity, p.OpenPositions, p.TradesClosed)
			}
		}
		fmt.Printf("Running backtest: %d days, %d tickers, strategy %s\n\n",
			params.Days, len(universe), orDefault(btStrategy, "default"))
	}

	result, err := engine.Run(cmd.Context(), params, universe)
	if err != nil {
		return err
	}

	if btJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*backtest.Params `json:"params"`
			Result           interface{} `json:"result"`
			ProfitFactor     string      `json:"profit_factor"`
		}{&params, result, formatProfitFactor(result.Metrics)})
	}

	printBacktestResult(params, result)
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
