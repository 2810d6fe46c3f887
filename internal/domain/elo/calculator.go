// Package elo implements the incremental Elo update used for hero ratings.
//
// The calculator is pure: no storage, no identifiers, no clocks. It maps two
// ratings plus a win/loss outcome to two new ratings, and is safe to call
// from any number of goroutines.
package elo

import "math"

// Default rating configuration constants.
const (
	defaultKFactor            = 32   // established players
	defaultProvisionalK       = 48   // while games < provisional threshold
	defaultProvisionalGames   = 10   // games before K drops to the established value
	defaultProvisionalFlag    = 20   // games before the provisional flag clears
	defaultInitialRating      = 1500 // domain convention for new records
	ratingSpread              = 400.0
	expectedScoreLogisticBase = 10.0
)

// Update holds the paired result of one comparison.
type Update struct {
	NewWinnerRating int
	NewLoserRating  int
	WinnerChange    int
	LoserChange     int
}

// Calculator computes Elo rating updates under a fixed configuration.
type Calculator struct {
	kFactor              float64
	provisionalKFactor   float64
	provisionalThreshold int
	flagThreshold        int
	initialRating        int
}

// New creates a calculator with configuration options.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		kFactor:              defaultKFactor,
		provisionalKFactor:   defaultProvisionalK,
		provisionalThreshold: defaultProvisionalGames,
		flagThreshold:        defaultProvisionalFlag,
		initialRating:        defaultInitialRating,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExpectedScore returns the probability that a player rated ra beats a
// player rated rb: 1 / (1 + 10^((rb-ra)/400)). The result is in (0,1) and
// ExpectedScore(a,b)+ExpectedScore(b,a) == 1 up to floating point.
func (c *Calculator) ExpectedScore(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(expectedScoreLogisticBase, (rb-ra)/ratingSpread))
}

// KFor selects the K-factor for a player with the given game count. Each
// side of a comparison selects its own K independently, so a provisional
// winner and an established loser can use different values in one update.
func (c *Calculator) KFor(games int) float64 {
	if games < c.provisionalThreshold {
		return c.provisionalKFactor
	}
	return c.kFactor
}

// NewRatings computes both sides of a comparison in one call.
//
// Deltas round half away from zero (math.Round), matching the historical
// data this system replays. A win never decreases a rating and a loss never
// increases one: the logistic curve keeps the expected score strictly below
// 1, so the winner delta stays non-negative, and symmetrically for the
// loser. Ratings are unbounded on purpose.
func (c *Calculator) NewRatings(winnerRating, loserRating, winnerGames, loserGames int) Update {
	ew := c.ExpectedScore(float64(winnerRating), float64(loserRating))
	el := 1.0 - ew

	kw := c.KFor(winnerGames)
	kl := c.KFor(loserGames)

	winnerChange := int(math.Round(kw * (1.0 - ew)))
	loserChange := int(math.Round(kl * (0.0 - el)))

	return Update{
		NewWinnerRating: winnerRating + winnerChange,
		NewLoserRating:  loserRating + loserChange,
		WinnerChange:    winnerChange,
		LoserChange:     loserChange,
	}
}

// InitialRating returns the rating assigned to unseen heroes.
func (c *Calculator) InitialRating() int {
	return c.initialRating
}

// FlagThreshold returns the game count at which records stop being flagged
// provisional. This is deliberately separate from the K-selection threshold.
func (c *Calculator) FlagThreshold() int {
	return c.flagThreshold
}
