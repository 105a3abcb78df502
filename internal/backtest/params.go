package backtest

import (
	"fmt"
	"time"

	"github.com/wonny/smartvest/internal/contracts"
)

// Params are the invocation parameters of a run. They are validated before
// any work starts; an invalid set never produces a partial run.
type Params struct {
	// Days is the simulation window length in calendar days, ending at EndDate.
	Days int `json:"days"`
	// Capital is the starting cash.
	Capital float64 `json:"capital"`
	// HoldDays is the position hold period in trading days.
	HoldDays int `json:"hold_days"`
	// MaxPositions caps concurrent open positions.
	MaxPositions int `json:"max_positions"`
	// MinScore is the entry threshold in [0, 100] score units.
	MinScore float64 `json:"min_score"`
	// EndDate is the last simulated day. Zero means today.
	EndDate time.Time `json:"end_date,omitempty"`
}

// DefaultParams returns the momentum-variant defaults. Strategy variants
// override HoldDays and MinScore via config; there is no single canonical
// pair across variants.
func DefaultParams() Params {
	return Params{
		Days:         90,
		Capital:      10_000,
		HoldDays:     5,
		MaxPositions: 10,
		MinScore:     70,
	}
}

// Validate checks all parameter ranges, returning a ValidationError on the
// first violation.
func (p Params) Validate() error {
	if p.Days < 30 || p.Days > 365 {
		return &contracts.ValidationError{Field: "days", Reason: fmt.Sprintf("must be between 30 and 365, got %d", p.Days)}
	}
	if p.Capital < 1_000 || p.Capital > 1_000_000 {
		return &contracts.ValidationError{Field: "capital", Reason: fmt.Sprintf("must be between 1,000 and 1,000,000, got %.2f", p.Capital)}
	}
	if p.HoldDays < 1 || p.HoldDays > 60 {
		return &contracts.ValidationError{Field: "hold_days", Reason: fmt.Sprintf("must be between 1 and 60, got %d", p.HoldDays)}
	}
	if p.MaxPositions < 1 || p.MaxPositions > 10 {
		return &contracts.ValidationError{Field: "max_positions", Reason: fmt.Sprintf("must be between 1 and 10, got %d", p.MaxPositions)}
	}
	return nil
}
