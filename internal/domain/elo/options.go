package elo

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithKFactor sets the K-factor for established players.
func WithKFactor(k float64) Option {
	return func(c *Calculator) {
		if k > 0 {
			c.kFactor = k
		}
	}
}

// WithProvisionalKFactor sets the elevated K-factor used while a player's
// game count is below the provisional threshold.
func WithProvisionalKFactor(k float64) Option {
	return func(c *Calculator) {
		if k > 0 {
			c.provisionalKFactor = k
		}
	}
}

// WithProvisionalThreshold sets the game count at which K drops to the
// established value.
func WithProvisionalThreshold(games int) Option {
	return func(c *Calculator) {
		if games >= 0 {
			c.provisionalThreshold = games
		}
	}
}

// WithFlagThreshold sets the game count at which the provisional flag on a
// record clears.
func WithFlagThreshold(games int) Option {
	return func(c *Calculator) {
		if games >= 0 {
			c.flagThreshold = games
		}
	}
}

// WithInitialRating sets the rating assigned to unseen heroes.
func WithInitialRating(rating int) Option {
	return func(c *Calculator) {
		if rating > 0 {
			c.initialRating = rating
		}
	}
}
