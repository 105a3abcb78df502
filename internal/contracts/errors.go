package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing price bar for an exact-date lookup.
	// Recoverable: the simulator skips that ticker for that day.
	ErrNotFound = errors.New("price not found")

	// ErrNoData signals a missing feature input for a ticker on a given day.
	// Recoverable: the scorer skips that ticker for that day only.
	ErrNoData = errors.New("no data")

	// ErrInsufficientHistory signals that a ticker lacks the minimum lookback
	// before the simulation start. The ticker is excluded for the whole run.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrProviderUnavailable signals an unreachable data or classifier
	// collaborator. Fatal for the run: temporal integrity cannot be
	// guaranteed once a provider fails mid-simulation.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ValidationError reports an invalid invocation parameter. The run never
// starts when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}
