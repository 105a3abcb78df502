package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
)

// PostgresProvider serves prices and news from the historical snapshot
// tables. Every date parameter passes through marketday.Normalize before it
// reaches SQL, so date-keyed rows are matched regardless of how the caller's
// timestamp looked.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider creates a provider over an existing pool.
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// ClosePrice implements contracts.PriceProvider.
func (p *PostgresProvider) ClosePrice(ctx context.Context, ticker string, date time.Time) (float64, error) {
	query := `
		SELECT close
		FROM data.daily_prices
		WHERE ticker = $1 AND trade_date = $2
	`

	var close float64
	err := p.pool.QueryRow(ctx, query, ticker, marketday.Normalize(date)).Scan(&close)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s on %s: %w", ticker, marketday.Normalize(date).Format("2006-01-02"), contracts.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query close price: %w: %v", contracts.ErrProviderUnavailable, err)
	}
	return close, nil
}

// PriceHistory implements contracts.PriceProvider: up to lookbackDays bars
// strictly before end, ascending.
func (p *PostgresProvider) PriceHistory(ctx context.Context, ticker string, end time.Time, lookbackDays int) ([]contracts.PriceBar, error) {
	query := `
		SELECT ticker, trade_date, open, high, low, close, volume
		FROM (
			SELECT ticker, trade_date, open, high, low, close, volume
			FROM data.daily_prices
			WHERE ticker = $1 AND trade_date < $2
			ORDER BY trade_date DESC
			LIMIT $3
		) recent
		ORDER BY trade_date ASC
	`

	rows, err := p.pool.Query(ctx, query, ticker, marketday.Normalize(end), lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w: %v", contracts.ErrProviderUnavailable, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		b.Date = marketday.Normalize(b.Date)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read price history: %w: %v", contracts.ErrProviderUnavailable, err)
	}
	return bars, nil
}

// Articles implements contracts.NewsProvider: articles with published_at in
// [start, end], ascending.
func (p *PostgresProvider) Articles(ctx context.Context, ticker string, start, end time.Time) ([]contracts.Article, error) {
	query := `
		SELECT ticker, title, source, published_at, sentiment_score
		FROM data.news_articles
		WHERE ticker = $1 AND published_at BETWEEN $2 AND $3
		ORDER BY published_at ASC
	`

	rows, err := p.pool.Query(ctx, query, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w: %v", contracts.ErrProviderUnavailable, err)
	}
	defer rows.Close()

	var articles []contracts.Article
	for rows.Next() {
		var a contracts.Article
		if err := rows.Scan(&a.Ticker, &a.Title, &a.Source, &a.PublishedAt, &a.Sentiment); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read articles: %w: %v", contracts.ErrProviderUnavailable, err)
	}
	return articles, nil
}

// Universe returns all tracked tickers, sorted, for run setup.
func (p *PostgresProvider) Universe(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT ticker FROM data.stocks ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query universe: %w: %v", contracts.ErrProviderUnavailable, err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
