package classifier

import "fmt"

// return_10d position in the feature vector (see features.Names).
const return10DIndex = 1

// Fallback scores on the 10-day return alone, mapping [-1, 1] linearly onto
// [0, 1]. It is used when no trained model artifact is configured, so a
// fresh deployment can still rank candidates.
type Fallback struct{}

// PredictProba implements contracts.Classifier.
func (Fallback) PredictProba(x []float64) (float64, error) {
	if len(x) <= return10DIndex {
		return 0, fmt.Errorf("expected at least %d features, got %d", return10DIndex+1, len(x))
	}

	p := (x[return10DIndex] + 1) / 2
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, nil
}
