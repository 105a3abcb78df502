package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Score the universe as of today and print buy candidates",
	Long: `Runs the exact scoring pipeline the backtests validate against the
latest available data and prints candidates above the score threshold.

Examples:
  smartvest recommend
  smartvest recommend --strategy dip --limit 5`,
	RunE: runRecommend,
}

var (
	recLimit    int
	recMinScore float64
	recStrategy string
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntVar(&recLimit, "limit", 10, "max candidates to print")
	recommendCmd.Flags().Float64Var(&recMinScore, "min-score", -1, "entry score threshold (default per strategy)")
	recommendCmd.Flags().StringVar(&recStrategy, "strategy", "", "strategy variant name")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	minScore := 70.0
	if recStrategy != "" {
		variant, ok := d.strategies[recStrategy]
		if !ok {
			return fmt.Errorf("unknown strategy %q", recStrategy)
		}
		minScore = variant.MinScore
	}
	if recMinScore >= 0 {
		minScore = recMinScore
	}

	universe, err := d.provider.Universe(cmd.Context())
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	recs, err := d.ranker.Recommend(cmd.Context(), time.Now(), universe, minScore, recLimit)
	if err != nil {
		return fmt.Errorf("score universe: %w", err)
	}

	printRecommendations(recs, minScore)
	return nil
}
