package backtest

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
	"github.com/wonny/smartvest/pkg/logger"
)

// Positions smaller than this are not worth opening; leftover cash below it
// just rides along until a close frees up more.
const minPositionCash = 100

// Simulator owns the portfolio state of a single run: cash, open positions,
// completed trades, and the equity curve. It is not safe for concurrent use;
// the engine drives it from a single goroutine, one trading day at a time.
type Simulator struct {
	prices contracts.PriceProvider
	log    *logger.Logger

	cash      float64
	positions []*contracts.Position
	trades    []contracts.Trade
	equity    []contracts.EquityPoint

	// lastPrice remembers the most recent observed close per held ticker so
	// mark-to-market stays continuous across data gaps.
	lastPrice map[string]float64
}

// NewSimulator creates a simulator with the given starting cash.
func NewSimulator(prices contracts.PriceProvider, log *logger.Logger, capital float64) *Simulator {
	return &Simulator{
		prices:    prices,
		log:       log,
		cash:      capital,
		lastPrice: make(map[string]float64),
	}
}

// Cash returns the uninvested balance.
func (s *Simulator) Cash() float64 { return s.cash }

// OpenCount returns the number of open positions.
func (s *Simulator) OpenCount() int { return len(s.positions) }

// Trades returns the completed trades in close order.
func (s *Simulator) Trades() []contracts.Trade { return s.trades }

// EquityCurve returns the per-day equity points recorded so far.
func (s *Simulator) EquityCurve() []contracts.EquityPoint { return s.equity }

// Holds reports whether a position in ticker is currently open.
func (s *Simulator) Holds(ticker string) bool {
	for _, p := range s.positions {
		if p.Ticker == ticker {
			return true
		}
	}
	return false
}

// CloseMatured closes every position whose age in trading days has reached
// holdDays, selling at the given date's close. A ticker with no bar on the
// date stays open and is retried on the next trading day.
func (s *Simulator) CloseMatured(ctx context.Context, date time.Time, holdDays int) error {
	remaining := s.positions[:0]
	for _, pos := range s.positions {
		age := marketday.TradingDaysBetween(pos.EntryDate, date)
		if age < holdDays {
			remaining = append(remaining, pos)
			continue
		}

		price, err := s.prices.ClosePrice(ctx, pos.Ticker, date)
		if err != nil {
			if errors.Is(err, contracts.ErrNotFound) {
				s.log.WithFields(map[string]interface{}{
					"ticker": pos.Ticker,
					"date":   date.Format("2006-01-02"),
				}).Debug("no close price on exit date, holding position")
				remaining = append(remaining, pos)
				continue
			}
			return err
		}

		s.closePosition(pos, date, price, false)
	}
	s.positions = remaining
	return nil
}

// OpenPositions buys candidates in rank order until the position cap or the
// cash runs out. Each buy allocates cash / remaining_slots at that moment, so
// earlier candidates never starve later ones of a full slot. Tickers already
// held are skipped; a second signal never pyramids an existing position.
func (s *Simulator) OpenPositions(date time.Time, candidates []contracts.Candidate, maxPositions int) {
	slots := maxPositions - len(s.positions)
	for _, c := range candidates {
		if slots <= 0 || s.cash < minPositionCash {
			return
		}
		if s.Holds(c.Ticker) {
			continue
		}
		if c.Price <= 0 {
			continue
		}

		alloc := s.cash / float64(slots)
		shares := int64(math.Floor(alloc / c.Price))
		if shares < 1 {
			continue
		}
		cost := float64(shares) * c.Price

		s.positions = append(s.positions, &contracts.Position{
			Ticker:     c.Ticker,
			EntryDate:  marketday.Normalize(date),
			EntryPrice: c.Price,
			Shares:     shares,
			Cost:       cost,
			EntryScore: c.Score,
			Status:     contracts.PositionOpen,
		})
		s.cash -= cost
		s.lastPrice[c.Ticker] = c.Price
		slots--

		s.log.WithFields(map[string]interface{}{
			"ticker": c.Ticker,
			"date":   date.Format("2006-01-02"),
			"price":  c.Price,
			"shares": shares,
			"score":  c.Score,
		}).Debug("opened position")
	}
}

// ForceCloseAll liquidates every remaining position at run end. Exits use the
// last close at or before the date; if a ticker has no bar at all in that
// span the position unwinds at its entry price.
func (s *Simulator) ForceCloseAll(ctx context.Context, date time.Time) error {
	for _, pos := range s.positions {
		price, err := s.exitPriceAtOrBefore(ctx, pos, date)
		if err != nil {
			return err
		}
		s.closePosition(pos, date, price, true)
	}
	s.positions = s.positions[:0]
	return nil
}

// MarkToMarket values the portfolio at the date's closes and appends an
// equity point. Tickers without a bar that day are valued at their last
// observed price.
func (s *Simulator) MarkToMarket(ctx context.Context, date time.Time) (contracts.EquityPoint, error) {
	value := s.cash
	for _, pos := range s.positions {
		price, err := s.prices.ClosePrice(ctx, pos.Ticker, date)
		switch {
		case err == nil:
			s.lastPrice[pos.Ticker] = price
		case errors.Is(err, contracts.ErrNotFound):
			price = s.lastPrice[pos.Ticker]
		default:
			return contracts.EquityPoint{}, err
		}
		value += float64(pos.Shares) * price
	}

	point := contracts.EquityPoint{
		Date:          marketday.Normalize(date),
		Value:         value,
		Cash:          s.cash,
		OpenPositions: len(s.positions),
	}
	s.equity = append(s.equity, point)
	return point, nil
}

func (s *Simulator) closePosition(pos *contracts.Position, date time.Time, price float64, forced bool) {
	proceeds := float64(pos.Shares) * price
	s.cash += proceeds

	pos.Status = contracts.PositionClosed
	pos.ExitDate = marketday.Normalize(date)
	pos.ExitPrice = price
	delete(s.lastPrice, pos.Ticker)

	trade := contracts.Trade{
		Ticker:     pos.Ticker,
		EntryDate:  pos.EntryDate,
		ExitDate:   pos.ExitDate,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Shares:     pos.Shares,
		Cost:       pos.Cost,
		Proceeds:   proceeds,
		PnL:        proceeds - pos.Cost,
		ReturnPct:  (proceeds - pos.Cost) / pos.Cost * 100,
		HoldDays:   marketday.TradingDaysBetween(pos.EntryDate, pos.ExitDate),
		EntryScore: pos.EntryScore,
		ForcedExit: forced,
	}
	s.trades = append(s.trades, trade)

	s.log.WithFields(map[string]interface{}{
		"ticker":     trade.Ticker,
		"exit_date":  trade.ExitDate.Format("2006-01-02"),
		"return_pct": trade.ReturnPct,
		"forced":     forced,
	}).Debug("closed position")
}

// exitPriceAtOrBefore finds the most recent close at or before date,
// falling back to the entry price when the ticker has no bars in range.
func (s *Simulator) exitPriceAtOrBefore(ctx context.Context, pos *contracts.Position, date time.Time) (float64, error) {
	bars, err := s.prices.PriceHistory(ctx, pos.Ticker, marketday.Next(date), 1)
	if err != nil && !errors.Is(err, contracts.ErrNotFound) {
		return 0, err
	}
	if len(bars) == 0 {
		s.log.WithField("ticker", pos.Ticker).Warn("no price for forced exit, unwinding at entry price")
		return pos.EntryPrice, nil
	}
	return bars[len(bars)-1].Close, nil
}
