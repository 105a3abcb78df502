package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/smartvest/internal/api"
	"github.com/wonny/smartvest/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Serves backtests, recommendations and strategy listings over HTTP,
plus a websocket endpoint that streams per-day backtest progress.

Endpoints:
  GET  /health
  POST /api/backtest
  GET  /api/recommendations
  GET  /api/strategies
  WS   /ws/backtest`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	backtestHandler := handlers.NewBacktestHandler(d.newEngine, d.provider, d.strategies, d.log)
	recommendHandler := handlers.NewRecommendHandler(d.ranker, d.provider, d.strategies, d.log)
	strategyHandler := handlers.NewStrategyHandler(d.strategies)

	router := api.NewRouter(backtestHandler, recommendHandler, strategyHandler, d.log)
	server := api.New(d.cfg, d.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		d.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
