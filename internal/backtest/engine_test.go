package backtest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartvest/internal/analytics"
	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/marketday"
	"github.com/wonny/smartvest/internal/providers"
	"github.com/wonny/smartvest/pkg/logger"
)

// stubRanker returns a fixed score per ticker with that day's close as entry
// price, starting from activeFrom. It keeps entry decisions deterministic so
// tests control exactly when positions open.
type stubRanker struct {
	snap       *providers.MemorySnapshot
	scores     map[string]float64
	activeFrom time.Time
}

func (r *stubRanker) Rank(ctx context.Context, date time.Time, universe []string, minScore float64) ([]contracts.Candidate, error) {
	if date.Before(r.activeFrom) {
		return nil, nil
	}
	var out []contracts.Candidate
	for _, ticker := range universe {
		score, ok := r.scores[ticker]
		if !ok || score < minScore {
			continue
		}
		price, err := r.snap.ClosePrice(ctx, ticker, date)
		if errors.Is(err, contracts.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, contracts.Candidate{Ticker: ticker, Score: score, Price: price})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out, nil
}

// seedWeekdays inserts a flat close for every weekday in [from, to].
func seedWeekdays(snap *providers.MemorySnapshot, ticker string, from, to time.Time, close float64) {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !marketday.IsTradingDay(d) {
			continue
		}
		snap.AddBar(contracts.PriceBar{Ticker: ticker, Date: d, Close: close, Volume: 1000})
	}
}

func newTestEngine(snap *providers.MemorySnapshot, ranker CandidateRanker) *Engine {
	return NewEngine(ranker, snap, analytics.NewAnalyzer(0), nil, logger.NewNop())
}

var (
	scenarioMonday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	scenarioFriday = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
)

// scenarioSnapshot seeds X with enough flat history to pass prescreening,
// then the week Mon..Fri closing at 100, 105, 110, 108, 120.
func scenarioSnapshot(t *testing.T) *providers.MemorySnapshot {
	t.Helper()
	snap := providers.NewMemorySnapshot()
	seedWeekdays(snap, "X", scenarioMonday.AddDate(0, 0, -80), scenarioMonday.AddDate(0, 0, -3), 100)
	for i, close := range []float64{100, 105, 110, 108, 120} {
		snap.AddBar(contracts.PriceBar{Ticker: "X", Date: scenarioMonday.AddDate(0, 0, i), Close: close, Volume: 1000})
	}
	return snap
}

func TestRunHoldPeriodRoundTrip(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	result, err := engine.Run(context.Background(), Params{
		Days:         30,
		Capital:      1000,
		HoldDays:     2,
		MaxPositions: 1,
		MinScore:     70,
		EndDate:      scenarioFriday,
	}, []string{"X"})
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)

	first := result.Trades[0]
	assert.Equal(t, "X", first.Ticker)
	assert.Equal(t, scenarioMonday, first.EntryDate)
	assert.Equal(t, 100.0, first.EntryPrice)
	assert.Equal(t, int64(10), first.Shares)
	assert.Equal(t, 110.0, first.ExitPrice)
	assert.InDelta(t, 10.0, first.ReturnPct, 1e-9)
	assert.False(t, first.ForcedExit)

	second := result.Trades[1]
	assert.Equal(t, scenarioMonday.AddDate(0, 0, 2), second.EntryDate)
	assert.Equal(t, 110.0, second.EntryPrice)
	assert.Equal(t, int64(10), second.Shares)
	assert.Equal(t, 120.0, second.ExitPrice)
	assert.InDelta(t, 100.0/1100.0*100, second.ReturnPct, 1e-9)
	assert.False(t, second.ForcedExit)

	assert.InDelta(t, 1200.0, result.FinalValue, 1e-9)
	assert.InDelta(t, 20.0, result.Metrics.TotalReturnPct, 1e-9)
	assert.Equal(t, 100.0, result.Metrics.WinRatePct)
	assert.Equal(t, 2, result.Metrics.TotalTrades)
}

func TestRunNoCandidatesIsEmptyResultNotError(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	params := Params{Days: 30, Capital: 1000, HoldDays: 2, MaxPositions: 1, MinScore: 101, EndDate: scenarioFriday}
	result, err := engine.Run(context.Background(), params, []string{"X"})
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.True(t, result.Metrics.InsufficientData)
	assert.Equal(t, 1000.0, result.FinalValue)
	assert.Zero(t, result.Metrics.TotalReturnPct)
}

func TestRunSkipsWeekends(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	result, err := engine.Run(context.Background(), Params{
		Days: 30, Capital: 1000, HoldDays: 2, MaxPositions: 1, MinScore: 70, EndDate: scenarioFriday,
	}, []string{"X"})
	require.NoError(t, err)

	for _, p := range result.EquityCurve {
		wd := p.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
	assert.Equal(t, len(result.EquityCurve), result.TradingDays)
}

func TestRunForcedExitAtEnd(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	// Hold period longer than the remaining window: the Monday entry never
	// matures and must liquidate on the final day.
	result, err := engine.Run(context.Background(), Params{
		Days: 30, Capital: 1000, HoldDays: 60, MaxPositions: 1, MinScore: 70, EndDate: scenarioFriday,
	}, []string{"X"})
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.True(t, trade.ForcedExit)
	assert.Equal(t, scenarioFriday, trade.ExitDate)
	assert.Equal(t, 120.0, trade.ExitPrice)
	assert.InDelta(t, 20.0, trade.ReturnPct, 1e-9)
}

func TestRunPositionCapAndCashInvariants(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	tickers := []string{"AAA", "BBB", "CCC", "DDD", "EEE"}
	scores := make(map[string]float64, len(tickers))
	for i, tk := range tickers {
		seedWeekdays(snap, tk, scenarioMonday.AddDate(0, 0, -160), scenarioFriday, 50+float64(i)*10)
		scores[tk] = 90
	}
	ranker := &stubRanker{snap: snap, scores: scores, activeFrom: scenarioMonday.AddDate(0, 0, -30)}
	engine := newTestEngine(snap, ranker)

	result, err := engine.Run(context.Background(), Params{
		Days: 60, Capital: 10_000, HoldDays: 3, MaxPositions: 2, MinScore: 70, EndDate: scenarioFriday,
	}, tickers)
	require.NoError(t, err)

	for _, p := range result.EquityCurve {
		assert.LessOrEqual(t, p.OpenPositions, 2)
		assert.GreaterOrEqual(t, p.Cash, 0.0)
	}
	// Flat prices: every completed trade breaks even and value is conserved.
	for _, trade := range result.Trades {
		assert.InDelta(t, 0.0, trade.PnL, 1e-9)
	}
	assert.InDelta(t, 10_000.0, result.FinalValue, 1e-9)
}

func TestRunNeverPyramidsHeldTicker(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	// Capacity for three positions but only one ticker signals: the open
	// position must block re-entry until it closes.
	result, err := engine.Run(context.Background(), Params{
		Days: 30, Capital: 10_000, HoldDays: 2, MaxPositions: 3, MinScore: 70, EndDate: scenarioFriday,
	}, []string{"X"})
	require.NoError(t, err)

	for _, p := range result.EquityCurve {
		assert.LessOrEqual(t, p.OpenPositions, 1)
	}
	require.Len(t, result.Trades, 2)
	assert.Equal(t, scenarioMonday, result.Trades[0].EntryDate)
	assert.Equal(t, scenarioMonday.AddDate(0, 0, 2), result.Trades[1].EntryDate)
}

func TestRunExcludesInsufficientHistory(t *testing.T) {
	snap := scenarioSnapshot(t)
	// Y has bars only inside the window, nothing before the start.
	seedWeekdays(snap, "Y", scenarioMonday, scenarioFriday, 10)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100, "Y": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	result, err := engine.Run(context.Background(), Params{
		Days: 30, Capital: 1000, HoldDays: 2, MaxPositions: 2, MinScore: 70, EndDate: scenarioFriday,
	}, []string{"X", "Y"})
	require.NoError(t, err)

	require.Contains(t, result.ExcludedTickers, "Y")
	for _, trade := range result.Trades {
		assert.Equal(t, "X", trade.Ticker)
	}
}

func TestRunCancellation(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, Params{
		Days: 30, Capital: 1000, HoldDays: 2, MaxPositions: 1, MinScore: 70, EndDate: scenarioFriday,
	}, []string{"X"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunProgressHook(t *testing.T) {
	snap := scenarioSnapshot(t)
	ranker := &stubRanker{snap: snap, scores: map[string]float64{"X": 100}, activeFrom: scenarioMonday}
	engine := newTestEngine(snap, ranker)

	var updates []Progress
	engine.OnProgress = func(p Progress) { updates = append(updates, p) }

	result, err := engine.Run(context.Background(), Params{
		Days: 30, Capital: 1000, HoldDays: 2, MaxPositions: 1, MinScore: 70, EndDate: scenarioFriday,
	}, []string{"X"})
	require.NoError(t, err)

	require.Len(t, updates, result.TradingDays)
	last := updates[len(updates)-1]
	assert.Equal(t, result.TradingDays, last.TradingDay)
	assert.InDelta(t, result.FinalValue, last.Equity, 1e-9)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"days too small", func(p *Params) { p.Days = 29 }, "days"},
		{"days too large", func(p *Params) { p.Days = 366 }, "days"},
		{"capital too small", func(p *Params) { p.Capital = 999 }, "capital"},
		{"capital too large", func(p *Params) { p.Capital = 1_000_001 }, "capital"},
		{"hold too small", func(p *Params) { p.HoldDays = 0 }, "hold_days"},
		{"hold too large", func(p *Params) { p.HoldDays = 61 }, "hold_days"},
		{"positions too small", func(p *Params) { p.MaxPositions = 0 }, "max_positions"},
		{"positions too large", func(p *Params) { p.MaxPositions = 11 }, "max_positions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)

			err := params.Validate()
			var verr *contracts.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.NoError(t, DefaultParams().Validate())
}
