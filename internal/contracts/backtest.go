package contracts

import "time"

// PositionStatus is the lifecycle state of a Position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position is a holding created by the simulator when a candidate is
// selected and capital is available. A position closes exactly once, when
// its age in trading days reaches the hold period, and is never reopened.
// ExitDate/ExitPrice are set iff Status is CLOSED.
type Position struct {
	Ticker     string         `json:"ticker"`
	EntryDate  time.Time      `json:"entry_date"`
	EntryPrice float64        `json:"entry_price"`
	Shares     int64          `json:"shares"`
	Cost       float64        `json:"cost"`
	EntryScore float64        `json:"entry_score"`
	Status     PositionStatus `json:"status"`
	ExitDate   time.Time      `json:"exit_date,omitempty"`
	ExitPrice  float64        `json:"exit_price,omitempty"`
}

// Trade is the immutable closed-form record appended to the ledger when a
// position closes. ForcedExit marks positions liquidated at run end rather
// than by hold-period maturity.
type Trade struct {
	Ticker     string    `json:"ticker"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     int64     `json:"shares"`
	Cost       float64   `json:"cost"`
	Proceeds   float64   `json:"proceeds"`
	PnL        float64   `json:"pnl"`
	ReturnPct  float64   `json:"return_pct"`
	HoldDays   int       `json:"hold_days"`
	EntryScore float64   `json:"entry_score"`
	ForcedExit bool      `json:"forced_exit"`
}

// EquityPoint is one mark-to-market observation on the equity curve.
type EquityPoint struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	Cash          float64   `json:"cash"`
	OpenPositions int       `json:"open_positions"`
}

// Candidate is one ranked entry candidate for a simulation day.
type Candidate struct {
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
	Price  float64 `json:"price"`
}

// Metrics holds the performance statistics computed from a trade ledger and
// equity curve. When no trades executed, InsufficientData is true and the
// per-trade fields are zero; ProfitFactor is +Inf when there are wins but no
// losses. Percentages are expressed in percent, not fractions.
type Metrics struct {
	TotalReturnPct   float64 `json:"total_return_pct"`
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRatePct       float64 `json:"win_rate_pct"`
	AvgWinPct        float64 `json:"avg_win_pct"`
	AvgLossPct       float64 `json:"avg_loss_pct"`
	AvgTradePct      float64 `json:"avg_trade_pct"`
	ProfitFactor     float64 `json:"-"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	MaxDrawdownDays  int     `json:"max_drawdown_days"`
	AvgHoldDays      float64 `json:"avg_hold_days"`
	BestTradePct     float64 `json:"best_trade_pct"`
	WorstTradePct    float64 `json:"worst_trade_pct"`
	InsufficientData bool    `json:"insufficient_data"`
}

// BenchmarkComparison is the strategy-vs-index result over the identical
// simulation window.
type BenchmarkComparison struct {
	Symbol             string  `json:"symbol"`
	BenchmarkReturnPct float64 `json:"benchmark_return_pct"`
	AlphaPct           float64 `json:"alpha_pct"`
}

// BacktestResult is the immutable output of a run. Ownership transfers to
// the caller on completion; nothing is persisted by the engine.
type BacktestResult struct {
	StartDate       time.Time           `json:"start_date"`
	EndDate         time.Time           `json:"end_date"`
	TradingDays     int                 `json:"trading_days"`
	StartingCapital float64             `json:"starting_capital"`
	FinalValue      float64             `json:"final_value"`
	Trades          []Trade             `json:"trades"`
	EquityCurve     []EquityPoint       `json:"equity_curve"`
	Metrics         Metrics             `json:"metrics"`
	Benchmark       BenchmarkComparison `json:"benchmark"`

	// ExcludedTickers maps tickers dropped for the whole run (insufficient
	// lookback before the start date) to the reason they were dropped.
	ExcludedTickers map[string]string `json:"excluded_tickers,omitempty"`
}
