// Package features computes the feature vector consumed by the classifier.
//
// One pure function serves both the live recommendation path and the
// backtest scorer. The two paths previously computed features separately and
// drifted apart, which produced mismatched scores; keeping a single stateless
// implementation here removes that class of defect.
package features

import (
	"github.com/wonny/smartvest/internal/contracts"
)

// MinBars is the minimum price history required to compute a vector.
const MinBars = 30

// Names lists the features in the exact order the classifier was trained
// with. Order changes here break the model contract.
var Names = []string{
	"return_5d",
	"return_10d",
	"return_20d",
	"momentum",
	"volume_trend",
	"avg_sentiment",
	"sentiment_positive",
	"sentiment_negative",
}

// Vector is one computed feature observation.
type Vector struct {
	Return5D          float64 `json:"return_5d"`
	Return10D         float64 `json:"return_10d"`
	Return20D         float64 `json:"return_20d"`
	Momentum          float64 `json:"momentum"`
	VolumeTrend       float64 `json:"volume_trend"`
	AvgSentiment      float64 `json:"avg_sentiment"`
	SentimentPositive float64 `json:"sentiment_positive"`
	SentimentNegative float64 `json:"sentiment_negative"`
}

// Values returns the vector in classifier input order (see Names).
func (v Vector) Values() []float64 {
	return []float64{
		v.Return5D,
		v.Return10D,
		v.Return20D,
		v.Momentum,
		v.VolumeTrend,
		v.AvgSentiment,
		v.SentimentPositive,
		v.SentimentNegative,
	}
}

// Compute builds a feature vector from price bars (ascending date order) and
// news articles. It is a pure function: callers are responsible for passing
// only data timestamped before the decision point.
//
// Returns ErrInsufficientHistory when fewer than MinBars bars are supplied.
func Compute(bars []contracts.PriceBar, articles []contracts.Article) (Vector, error) {
	if len(bars) < MinBars {
		return Vector{}, contracts.ErrInsufficientHistory
	}

	closes := make([]float64, len(bars))
	volumes := make([]int64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	v := Vector{
		Return5D:    trailingReturn(closes, 5),
		Return10D:   trailingReturn(closes, 10),
		Return20D:   trailingReturn(closes, 20),
		Momentum:    directionConsistency(closes),
		VolumeTrend: volumeTrend(volumes),
	}
	v.AvgSentiment, v.SentimentPositive, v.SentimentNegative = sentimentStats(articles)

	return v, nil
}

// trailingReturn is the fractional return over the last n bars.
func trailingReturn(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return 0
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base
}

// directionConsistency counts up-days as +1 and down-days as -1 across the
// whole window, normalized by window length. A steadily rising series
// approaches +1, a steadily falling one -1.
func directionConsistency(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	sum := 0
	for i := 1; i < len(closes); i++ {
		if closes[i] > closes[i-1] {
			sum++
		} else {
			sum--
		}
	}
	return float64(sum) / float64(len(closes))
}

// volumeTrend is the last bar's volume relative to the window average.
func volumeTrend(volumes []int64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	var sum int64
	for _, v := range volumes {
		sum += v
	}
	avg := float64(sum) / float64(len(volumes))
	if avg == 0 {
		return 0
	}
	return (float64(volumes[len(volumes)-1]) - avg) / avg
}

// sentimentStats aggregates scored articles: mean sentiment plus the
// fractions of strongly positive (> 0.3) and strongly negative (< -0.3)
// articles. Unscored articles are ignored; no articles means neutral zeros.
func sentimentStats(articles []contracts.Article) (avg, positive, negative float64) {
	var scores []float64
	for _, a := range articles {
		if a.Sentiment != nil {
			scores = append(scores, *a.Sentiment)
		}
	}
	if len(scores) == 0 {
		return 0, 0, 0
	}

	var sum float64
	var pos, neg int
	for _, s := range scores {
		sum += s
		if s > 0.3 {
			pos++
		}
		if s < -0.3 {
			neg++
		}
	}

	n := float64(len(scores))
	return sum / n, float64(pos) / n, float64(neg) / n
}
