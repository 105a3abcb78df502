package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "smartvest",
	Short: "Point-in-time stock backtesting and recommendation engine",
	Long: `SmartVest replays a scoring strategy over historical snapshot data,
simulates a portfolio with strict no-lookahead discipline, and reports
performance against a market benchmark. The same scoring pipeline serves
live recommendations.

Examples:
  smartvest backtest --days 90 --capital 10000 --strategy momentum
  smartvest recommend --limit 10 --min-score 70
  smartvest api
  smartvest scheduler`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
