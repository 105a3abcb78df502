package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/smartvest/internal/scheduler"
	"github.com/wonny/smartvest/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly strategy validation scheduler",
	Long: `Registers recurring jobs and blocks until interrupted. The
validation job backtests every strategy variant after each trading day and
logs the results.

Examples:
  smartvest scheduler
  smartvest scheduler --window 60 --run-now`,
	RunE: runScheduler,
}

var (
	schedWindow int
	schedRunNow bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().IntVar(&schedWindow, "window", 90, "validation backtest window in calendar days")
	schedulerCmd.Flags().BoolVar(&schedRunNow, "run-now", false, "trigger the validation job immediately")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	sched := scheduler.New(d.log)
	validation := jobs.NewValidationJob(d.newEngine, d.provider, d.strategies, schedWindow, d.log)
	if err := sched.AddJob(validation); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if schedRunNow {
		if err := sched.RunNow(validation.Name()); err != nil {
			return err
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	d.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}
