// Package classifier provides the trained model behind the scoring path.
//
// The model artifact is exported by the training pipeline as YAML: feature
// names in input order, scaler parameters, logistic coefficients and
// intercept. Loading validates the artifact against the feature pipeline so
// a stale model fails fast instead of silently mis-scoring.
package classifier

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/smartvest/internal/features"
)

// Logistic is a logistic-regression classifier with an optional standard
// scaler. It implements contracts.Classifier.
type Logistic struct {
	featureNames []string
	coefficients []float64
	intercept    float64
	means        []float64
	scales       []float64
}

type modelFile struct {
	Model        string    `yaml:"model"`
	Version      string    `yaml:"version"`
	Features     []string  `yaml:"features"`
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
	Scaler       *struct {
		Means  []float64 `yaml:"means"`
		Scales []float64 `yaml:"scales"`
	} `yaml:"scaler"`
}

// Load reads a model artifact from path. Unknown YAML fields are rejected.
func Load(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var mf modelFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("decode model file: %w", err)
	}

	if mf.Model != "logistic_regression" {
		return nil, fmt.Errorf("unsupported model type %q", mf.Model)
	}
	if len(mf.Features) != len(features.Names) {
		return nil, fmt.Errorf("model has %d features, pipeline produces %d", len(mf.Features), len(features.Names))
	}
	for i, name := range mf.Features {
		if name != features.Names[i] {
			return nil, fmt.Errorf("feature order mismatch at %d: model %q, pipeline %q", i, name, features.Names[i])
		}
	}
	if len(mf.Coefficients) != len(mf.Features) {
		return nil, fmt.Errorf("model has %d coefficients for %d features", len(mf.Coefficients), len(mf.Features))
	}

	m := &Logistic{
		featureNames: mf.Features,
		coefficients: mf.Coefficients,
		intercept:    mf.Intercept,
	}

	if mf.Scaler != nil {
		if len(mf.Scaler.Means) != len(mf.Features) || len(mf.Scaler.Scales) != len(mf.Features) {
			return nil, fmt.Errorf("scaler dimensions do not match feature count")
		}
		for i, s := range mf.Scaler.Scales {
			if s == 0 {
				return nil, fmt.Errorf("scaler scale[%d] is zero", i)
			}
		}
		m.means = mf.Scaler.Means
		m.scales = mf.Scaler.Scales
	}

	return m, nil
}

// PredictProba returns the probability of a positive forward outcome.
func (m *Logistic) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.coefficients), len(x))
	}

	z := m.intercept
	for i, xi := range x {
		if m.scales != nil {
			xi = (xi - m.means[i]) / m.scales[i]
		}
		z += m.coefficients[i] * xi
	}

	p := 1.0 / (1.0 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, fmt.Errorf("prediction produced NaN")
	}
	return p, nil
}
