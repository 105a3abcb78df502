package commands

import (
	"fmt"

	"github.com/wonny/smartvest/internal/analytics"
	"github.com/wonny/smartvest/internal/backtest"
	"github.com/wonny/smartvest/internal/benchmark"
	"github.com/wonny/smartvest/internal/classifier"
	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/providers"
	"github.com/wonny/smartvest/internal/scoring"
	"github.com/wonny/smartvest/internal/strategy"
	"github.com/wonny/smartvest/pkg/config"
	"github.com/wonny/smartvest/pkg/database"
	"github.com/wonny/smartvest/pkg/logger"
	"github.com/wonny/smartvest/pkg/redis"
)

// deps is the shared dependency graph behind every command.
type deps struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	provider   *providers.PostgresProvider
	prices     contracts.PriceProvider
	ranker     *scoring.Ranker
	strategies map[string]strategy.Strategy

	newEngine func() *backtest.Engine
}

// buildDeps wires config through providers to the engine factory. Commands
// call this once and defer Close.
func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.LogFormat)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	pg := providers.NewPostgresProvider(db.Pool)

	var prices contracts.PriceProvider = pg
	if cfg.Database.QueryRPS > 0 {
		prices = providers.NewRateLimitedPriceProvider(prices, cfg.Database.QueryRPS, int(cfg.Database.QueryRPS))
	}
	if redisClient.Enabled() {
		prices = providers.NewCachedPriceProvider(prices, redis.NewCache(redisClient, "smartvest"))
		log.Info("Price cache enabled")
	}

	var model contracts.Classifier
	if cfg.Backtest.ModelPath != "" {
		m, err := classifier.Load(cfg.Backtest.ModelPath)
		if err != nil {
			redisClient.Close()
			db.Close()
			return nil, fmt.Errorf("load model: %w", err)
		}
		model = m
		log.WithField("path", cfg.Backtest.ModelPath).Info("Loaded classifier model")
	} else {
		model = classifier.Fallback{}
		log.Warn("MODEL_PATH not set, using fallback momentum classifier")
	}

	scorer := scoring.NewScorer(prices, pg, model, log)
	ranker := scoring.NewRanker(scorer, prices, log)
	analyzer := analytics.NewAnalyzer(cfg.Backtest.RiskFreeRate)
	comparator := benchmark.NewComparator(prices, cfg.Backtest.BenchmarkSymbol)

	strategies, err := strategy.LoadDir(cfg.Backtest.StrategyDir)
	if err != nil {
		log.WithError(err).Warn("No strategy variants loaded")
		strategies = map[string]strategy.Strategy{}
	}

	return &deps{
		cfg:        cfg,
		log:        log,
		db:         db,
		redis:      redisClient,
		provider:   pg,
		prices:     prices,
		ranker:     ranker,
		strategies: strategies,
		newEngine: func() *backtest.Engine {
			return backtest.NewEngine(ranker, prices, analyzer, comparator, log)
		},
	}, nil
}

// Close releases all connections.
func (d *deps) Close() {
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}
