package usecase

// Named matching profiles. Each entry point used to carry its own thresholds;
// they are collected here so deployments can tune them in one place.
const (
	ProfileDefault            = "default"
	ProfileLenient            = "lenient"
	ProfileStoreFallback      = "store_fallback"
	ProfileStoreLowConfidence = "store_low_confidence"
)

// Profile is a scoring configuration for the scored path
type Profile struct {
	Weights       Weights `json:"weights"`
	ConfThreshold float64 `json:"confThreshold"`
	TieDelta      float64 `json:"tieDelta"`
}

// DefaultProfiles returns the built-in profiles
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileDefault: {
			Weights:       DefaultWeights(),
			ConfThreshold: 0.55,
			TieDelta:      0.05,
		},
		ProfileLenient: {
			Weights:       DefaultWeights(),
			ConfThreshold: 0.30,
			TieDelta:      0.10,
		},
		ProfileStoreFallback: {
			Weights:       DefaultWeights(),
			ConfThreshold: 0.15,
			TieDelta:      0.20,
		},
		ProfileStoreLowConfidence: {
			Weights: Weights{
				Lexical:  0.40,
				Semantic: 0.20,
				Partial:  0.30,
				Brand:    0.10,
			},
			ConfThreshold: 0.10,
			TieDelta:      0.25,
		},
	}
}
