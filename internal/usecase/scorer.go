package usecase

import (
	"fmt"
	"math"

	"github.com/macrolens/productmatch/internal/domain"
)

// Weights are the per-signal multipliers of the final score
type Weights struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
	Partial  float64 `json:"partial"`
	Brand    float64 `json:"brand"`
}

// DefaultWeights sum to 1
func DefaultWeights() Weights {
	return Weights{
		Lexical:  0.50,
		Semantic: 0.30,
		Partial:  0.15,
		Brand:    0.05,
	}
}

// Sum of all weights
func (w Weights) Sum() float64 {
	return w.Lexical + w.Semantic + w.Partial + w.Brand
}

// WithOverrides returns a copy of w with the named weights replaced.
// Accepted keys are lexical (alias token_set), semantic (alias embed),
// partial and brand. Unknown keys and negative or non-finite values are rejected.
func (w Weights) WithOverrides(overrides map[string]float64) (Weights, error) {
	out := w
	for key, value := range overrides {
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return w, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidWeights, key)
		}
		switch key {
		case "lexical", "token_set":
			out.Lexical = value
		case "semantic", "embed":
			out.Semantic = value
		case "partial":
			out.Partial = value
		case "brand":
			out.Brand = value
		default:
			return w, fmt.Errorf("%w: unknown weight %q", domain.ErrInvalidWeights, key)
		}
	}
	return out, nil
}

// Score combines clamped signals. The result is not re-clamped.
func Score(fv domain.FeatureVector, w Weights) float64 {
	return w.Lexical*clamp01(fv.LexicalScore) +
		w.Semantic*clamp01(fv.SemanticScore) +
		w.Partial*clamp01(fv.PartialScore) +
		w.Brand*clamp01(fv.BrandMatch)
}

// ScoreAll fills FinalScore on every candidate in place
func ScoreAll(scored []domain.ScoredCandidate, w Weights) {
	for i := range scored {
		scored[i].FinalScore = Score(scored[i].FeatureVector, w)
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
