package benchmark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/providers"
)

func TestCompareBasicWindow(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	// Mon 2024-03-04 through Fri 2024-03-08.
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	closes := []float64{5000, 5050, 5020, 5100, 5150}
	for i, c := range closes {
		snap.AddBar(contracts.PriceBar{Ticker: "SPX", Date: base.AddDate(0, 0, i), Close: c})
	}

	cmp, err := NewComparator(snap, "SPX").Compare(context.Background(), base, base.AddDate(0, 0, 4), 5.0)
	require.NoError(t, err)

	assert.Equal(t, "SPX", cmp.Symbol)
	assert.InDelta(t, 3.0, cmp.BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, 2.0, cmp.AlphaPct, 1e-9)
}

func TestCompareWeekendBoundaries(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	// Window starts Saturday and ends Sunday; prices exist only on the
	// Monday after the start and the Friday before the end.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	snap.AddBar(contracts.PriceBar{Ticker: "SPX", Date: monday, Close: 100})
	snap.AddBar(contracts.PriceBar{Ticker: "SPX", Date: friday, Close: 110})

	saturday := monday.AddDate(0, 0, -2)
	sunday := friday.AddDate(0, 0, 2)
	cmp, err := NewComparator(snap, "SPX").Compare(context.Background(), saturday, sunday, 0)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, cmp.BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, -10.0, cmp.AlphaPct, 1e-9)
}

func TestCompareMissingIndexData(t *testing.T) {
	snap := providers.NewMemorySnapshot()
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	_, err := NewComparator(snap, "SPX").Compare(context.Background(), start, start.AddDate(0, 0, 30), 0)
	assert.True(t, errors.Is(err, contracts.ErrNoData))
}
