package confidence

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithConfidenceLevel selects the two-sided confidence level for the Wilson
// interval. Levels outside the supported table fall back to 95%.
func WithConfidenceLevel(level float64) Option {
	return func(e *Estimator) {
		if z, ok := zByConfidence[level]; ok {
			e.z = z
		}
	}
}

// WithLevelThresholds sets the game counts for the High and Medium
// confidence buckets. Anything below the medium threshold is Low.
func WithLevelThresholds(highGames, mediumGames int) Option {
	return func(e *Estimator) {
		if highGames > 0 && mediumGames > 0 && highGames > mediumGames {
			e.highGames = highGames
			e.mediumGames = mediumGames
		}
	}
}
