// Package strategy loads named strategy variants from YAML. A variant is a
// bundle of entry/exit parameters (hold period, score threshold, position
// cap) so operators can switch between, say, a fast momentum book and a
// slower dip book without recompiling.
package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/smartvest/internal/backtest"
	"github.com/wonny/smartvest/internal/contracts"
)

// Strategy is one named parameter variant.
type Strategy struct {
	Name         string  `yaml:"name" json:"name"`
	Description  string  `yaml:"description" json:"description"`
	HoldDays     int     `yaml:"hold_days" json:"hold_days"`
	MinScore     float64 `yaml:"min_score" json:"min_score"`
	MaxPositions int     `yaml:"max_positions" json:"max_positions,omitempty"`
}

// Validate checks the variant against the same ranges the engine enforces,
// so a bad file fails at load time instead of at run time.
func (s Strategy) Validate() error {
	if s.Name == "" {
		return &contracts.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if s.HoldDays < 1 || s.HoldDays > 60 {
		return &contracts.ValidationError{Field: "hold_days", Reason: fmt.Sprintf("must be between 1 and 60, got %d", s.HoldDays)}
	}
	if s.MinScore < 0 || s.MinScore > 100 {
		return &contracts.ValidationError{Field: "min_score", Reason: fmt.Sprintf("must be between 0 and 100, got %.1f", s.MinScore)}
	}
	if s.MaxPositions < 0 || s.MaxPositions > 10 {
		return &contracts.ValidationError{Field: "max_positions", Reason: fmt.Sprintf("must be between 0 and 10, got %d", s.MaxPositions)}
	}
	return nil
}

// Apply overlays the variant onto base run parameters. MaxPositions is
// optional in the file; zero leaves the base cap in place.
func (s Strategy) Apply(base backtest.Params) backtest.Params {
	base.HoldDays = s.HoldDays
	base.MinScore = s.MinScore
	if s.MaxPositions > 0 {
		base.MaxPositions = s.MaxPositions
	}
	return base
}

// Load reads and validates a single variant file. Unknown YAML keys are
// rejected so typos surface immediately.
func Load(path string) (Strategy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Strategy{}, fmt.Errorf("open strategy file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var s Strategy
	if err := dec.Decode(&s); err != nil {
		return Strategy{}, fmt.Errorf("parse strategy %s: %w", filepath.Base(path), err)
	}
	if err := s.Validate(); err != nil {
		return Strategy{}, fmt.Errorf("strategy %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// LoadDir loads every *.yaml file in dir, keyed by strategy name.
func LoadDir(dir string) (map[string]Strategy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read strategy dir: %w", err)
	}

	variants := make(map[string]Strategy)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		s, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := variants[s.Name]; dup {
			return nil, fmt.Errorf("duplicate strategy name %q", s.Name)
		}
		variants[s.Name] = s
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no strategy files in %s", dir)
	}
	return variants, nil
}

// Names returns the loaded variant names, sorted.
func Names(variants map[string]Strategy) []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
