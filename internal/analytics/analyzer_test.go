package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/smartvest/internal/contracts"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func curve(values ...float64) []contracts.EquityPoint {
	points := make([]contracts.EquityPoint, len(values))
	for i, v := range values {
		points[i] = contracts.EquityPoint{Date: day(i), Value: v}
	}
	return points
}

func TestComputeTradeStats(t *testing.T) {
	trades := []contracts.Trade{
		{PnL: 100, ReturnPct: 10, HoldDays: 5},
		{PnL: 50, ReturnPct: 5, HoldDays: 5},
		{PnL: -30, ReturnPct: -3, HoldDays: 2},
	}

	m := NewAnalyzer(0).Compute(trades, curve(1000, 1120), 1000)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 66.67, m.WinRatePct, 0.01)
	assert.InDelta(t, 7.5, m.AvgWinPct, 1e-9)
	assert.InDelta(t, -3.0, m.AvgLossPct, 1e-9)
	assert.InDelta(t, 4.0, m.AvgTradePct, 1e-9)
	assert.InDelta(t, 150.0/30.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 4.0, m.AvgHoldDays, 1e-9)
	assert.InDelta(t, 10.0, m.BestTradePct, 1e-9)
	assert.InDelta(t, -3.0, m.WorstTradePct, 1e-9)
	assert.InDelta(t, 12.0, m.TotalReturnPct, 1e-9)
	assert.False(t, m.InsufficientData)
}

func TestComputeNoTrades(t *testing.T) {
	m := NewAnalyzer(0).Compute(nil, curve(1000, 1000, 1000), 1000)

	assert.True(t, m.InsufficientData)
	assert.Equal(t, 0, m.TotalTrades)
	assert.Zero(t, m.WinRatePct)
	assert.Zero(t, m.ProfitFactor)
	assert.Zero(t, m.TotalReturnPct)
}

func TestComputeProfitFactorNoLosses(t *testing.T) {
	trades := []contracts.Trade{
		{PnL: 100, ReturnPct: 10},
		{PnL: 20, ReturnPct: 2},
	}
	m := NewAnalyzer(0).Compute(trades, curve(1000, 1120), 1000)

	assert.True(t, math.IsInf(m.ProfitFactor, 1))
	assert.Equal(t, 100.0, m.WinRatePct)
}

func TestMaxDrawdownIsNegative(t *testing.T) {
	m := NewAnalyzer(0).Compute(nil, curve(100, 110, 99, 105, 120), 100)

	assert.InDelta(t, -10.0, m.MaxDrawdownPct, 1e-9)
	assert.LessOrEqual(t, m.MaxDrawdownPct, 0.0)
	// Below the 110 peak on days 2 and 3, recovered on day 4.
	assert.Equal(t, 2, m.MaxDrawdownDays)
}

func TestMaxDrawdownMonotoneCurve(t *testing.T) {
	m := NewAnalyzer(0).Compute(nil, curve(100, 101, 102, 103), 100)
	assert.Zero(t, m.MaxDrawdownPct)
	assert.Zero(t, m.MaxDrawdownDays)
}

func TestSharpeFlatCurveIsZero(t *testing.T) {
	m := NewAnalyzer(0).Compute(nil, curve(1000, 1000, 1000, 1000), 1000)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)
}

func TestSharpeRisingCurveIsPositive(t *testing.T) {
	m := NewAnalyzer(0).Compute(nil, curve(1000, 1010, 1015, 1030, 1032), 1000)
	assert.Greater(t, m.SharpeRatio, 0.0)
	// No down days, so downside deviation is undefined.
	assert.Zero(t, m.SortinoRatio)
}

func TestSortinoUsesDownsideOnly(t *testing.T) {
	m := NewAnalyzer(0).Compute(nil, curve(1000, 1020, 1010, 1040, 1030, 1060), 1000)
	assert.Greater(t, m.SortinoRatio, m.SharpeRatio)
}
