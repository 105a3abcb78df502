package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartvest/internal/backtest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const momentumYAML = `name: momentum
description: short hold, high conviction
hold_days: 5
min_score: 70
max_positions: 10
`

func TestLoadValidStrategy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "momentum.yaml", momentumYAML)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "momentum", s.Name)
	assert.Equal(t, 5, s.HoldDays)
	assert.Equal(t, 70.0, s.MinScore)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", momentumYAML+"stop_loss: 5\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRange(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: x\nhold_days: 90\nmin_score: 70\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hold_days")
}

func TestApplyOverlaysBaseParams(t *testing.T) {
	dip := Strategy{Name: "dip", HoldDays: 15, MinScore: 60}

	params := dip.Apply(backtest.DefaultParams())
	assert.Equal(t, 15, params.HoldDays)
	assert.Equal(t, 60.0, params.MinScore)
	// Unset cap keeps the base value.
	assert.Equal(t, 10, params.MaxPositions)
	assert.Equal(t, 90, params.Days)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "momentum.yaml", momentumYAML)
	writeFile(t, dir, "dip.yaml", "name: dip\ndescription: buy weakness\nhold_days: 15\nmin_score: 60\n")
	writeFile(t, dir, "README.md", "not yaml")

	variants, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, []string{"dip", "momentum"}, Names(variants))
}

func TestLoadDirRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", momentumYAML)
	writeFile(t, dir, "b.yaml", momentumYAML)

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
