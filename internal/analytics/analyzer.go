// Package analytics computes performance statistics from a completed trade
// ledger and equity curve. Everything here is pure arithmetic over immutable
// inputs; callers pass the data in and get a Metrics value back.
package analytics

import (
	"math"

	"github.com/wonny/smartvest/internal/contracts"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Analyzer derives metrics from run output. RiskFreeRate is annual; it is
// converted to a daily rate for the ratio calculations.
type Analyzer struct {
	riskFreeDaily float64
}

// NewAnalyzer creates an analyzer with the given annual risk-free rate
// (e.g. 0.04 for 4%).
func NewAnalyzer(annualRiskFree float64) *Analyzer {
	return &Analyzer{riskFreeDaily: annualRiskFree / tradingDaysPerYear}
}

// Compute derives the full metric set. With an empty ledger it returns total
// return and drawdown from the equity curve alone and sets InsufficientData;
// that is a valid outcome, not an error.
func (a *Analyzer) Compute(trades []contracts.Trade, equity []contracts.EquityPoint, capital float64) contracts.Metrics {
	m := contracts.Metrics{TotalTrades: len(trades)}

	if len(equity) > 0 && capital > 0 {
		final := equity[len(equity)-1].Value
		m.TotalReturnPct = (final - capital) / capital * 100
	}
	m.MaxDrawdownPct, m.MaxDrawdownDays = maxDrawdown(equity)
	m.SharpeRatio = a.sharpe(equity)
	m.SortinoRatio = a.sortino(equity)

	if len(trades) == 0 {
		m.InsufficientData = true
		return m
	}

	var (
		grossWin, grossLoss   float64
		sumWinPct, sumLossPct float64
		sumPct, sumHold       float64
	)
	m.BestTradePct = math.Inf(-1)
	m.WorstTradePct = math.Inf(1)

	for _, t := range trades {
		sumPct += t.ReturnPct
		sumHold += float64(t.HoldDays)
		if t.PnL > 0 {
			m.WinningTrades++
			grossWin += t.PnL
			sumWinPct += t.ReturnPct
		} else if t.PnL < 0 {
			m.LosingTrades++
			grossLoss += -t.PnL
			sumLossPct += t.ReturnPct
		}
		if t.ReturnPct > m.BestTradePct {
			m.BestTradePct = t.ReturnPct
		}
		if t.ReturnPct < m.WorstTradePct {
			m.WorstTradePct = t.ReturnPct
		}
	}

	m.WinRatePct = float64(m.WinningTrades) / float64(len(trades)) * 100
	m.AvgTradePct = sumPct / float64(len(trades))
	m.AvgHoldDays = sumHold / float64(len(trades))
	if m.WinningTrades > 0 {
		m.AvgWinPct = sumWinPct / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLossPct = sumLossPct / float64(m.LosingTrades)
	}

	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		m.ProfitFactor = math.Inf(1)
	}

	return m
}

// dailyReturns converts the equity curve to simple day-over-day returns.
func dailyReturns(equity []contracts.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	return returns
}

// sharpe is the annualized ratio of mean excess daily return to its standard
// deviation. Flat or too-short curves yield 0.
func (a *Analyzer) sharpe(equity []contracts.EquityPoint) float64 {
	returns := dailyReturns(equity)
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r - a.riskFreeDaily
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := (r - a.riskFreeDaily) - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// sortino is sharpe with only downside deviation in the denominator. A curve
// with no down days yields 0 rather than infinity.
func (a *Analyzer) sortino(equity []contracts.EquityPoint) float64 {
	returns := dailyReturns(equity)
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r - a.riskFreeDaily
	}
	mean /= float64(len(returns))

	downside := 0.0
	for _, r := range returns {
		if excess := r - a.riskFreeDaily; excess < 0 {
			downside += excess * excess
		}
	}
	downside = math.Sqrt(downside / float64(len(returns)))
	if downside == 0 {
		return 0
	}
	return mean / downside * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown returns the deepest peak-to-trough decline as a non-positive
// percentage, plus the longest stretch in calendar days the curve spent below
// a prior peak.
func maxDrawdown(equity []contracts.EquityPoint) (float64, int) {
	if len(equity) == 0 {
		return 0, 0
	}

	peak := equity[0].Value
	peakDate := equity[0].Date
	worst := 0.0
	longestDays := 0

	for _, p := range equity {
		if p.Value >= peak {
			peak = p.Value
			peakDate = p.Date
			continue
		}
		dd := (p.Value - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
		if days := int(p.Date.Sub(peakDate).Hours() / 24); days > longestDays {
			longestDays = days
		}
	}
	return worst, longestDays
}
