// Package confidence estimates how trustworthy a hero's win rate is.
//
// Raw win rate is misleading for small samples: 2/2 looks better than 95/100.
// The Wilson score interval shrinks that optimism, and its lower bound is a
// ranking-safe estimate that converges to the raw rate as games accumulate.
package confidence

import "math"

// Level classifies sample size into a coarse confidence bucket.
type Level string

// Confidence levels reported alongside rankings.
const (
	High   Level = "High"
	Medium Level = "Medium"
	Low    Level = "Low"
)

// Default classification thresholds and interval confidence.
const (
	defaultHighGames       = 30
	defaultMediumGames     = 10
	defaultConfidenceLevel = 0.95
)

// zByConfidence maps common two-sided confidence levels to their normal
// quantile. Unlisted levels fall back to the 95% value.
var zByConfidence = map[float64]float64{
	0.80: 1.282,
	0.90: 1.645,
	0.95: 1.960,
	0.98: 2.326,
	0.99: 2.576,
}

// Interval is a Wilson score interval for the true win probability.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Estimator computes Wilson scores under a fixed confidence configuration.
type Estimator struct {
	z           float64
	highGames   int
	mediumGames int
}

// New creates an estimator with configuration options.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		z:           zByConfidence[defaultConfidenceLevel],
		highGames:   defaultHighGames,
		mediumGames: defaultMediumGames,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score returns the lower bound of the Wilson interval: a conservative
// estimate of the true win probability, in [0,1]. Zero games scores zero by
// definition, not NaN.
func (e *Estimator) Score(wins, games int) float64 {
	lower, _ := e.bounds(wins, games)
	return lower
}

// ScoreInterval returns both endpoints of the Wilson interval for callers
// that want the whole range rather than the ranking-safe lower bound.
func (e *Estimator) ScoreInterval(wins, games int) Interval {
	lower, upper := e.bounds(wins, games)
	return Interval{Lower: lower, Upper: upper}
}

// LevelFor classifies a game count into a confidence bucket.
func (e *Estimator) LevelFor(games int) Level {
	switch {
	case games >= e.highGames:
		return High
	case games >= e.mediumGames:
		return Medium
	default:
		return Low
	}
}

func (e *Estimator) bounds(wins, games int) (lower, upper float64) {
	if games <= 0 {
		return 0, 0
	}

	n := float64(games)
	p := float64(wins) / n
	z2 := e.z * e.z

	center := p + z2/(2*n)
	margin := e.z * math.Sqrt((p*(1-p)+z2/(4*n))/n)
	denom := 1 + z2/n

	lower = (center - margin) / denom
	upper = (center + margin) / denom

	// The interval is a probability range; keep it inside [0,1] against
	// floating point drift at the extremes.
	lower = math.Max(0, math.Min(1, lower))
	upper = math.Max(0, math.Min(1, upper))
	return lower, upper
}
