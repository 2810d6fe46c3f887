package model

// RatingRecord tracks one hero's rating state. Records are created lazily
// the first time a hero appears in a vote and are mutated exactly once per
// comparison they take part in.
type RatingRecord struct {
	ID            int64   `json:"id"`
	Rating        int     `json:"rating"`
	Games         int     `json:"games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	PeakRating    int     `json:"peak_rating"`
	LowestRating  int     `json:"lowest_rating"`
	WinRate       float64 `json:"win_rate"`
	CurrentStreak int     `json:"current_streak"`
	Provisional   bool    `json:"is_provisional"`
}

// NewRecord returns a fresh record at the starting rating. Extrema start at
// the initial rating so they always bracket the lifetime rating range.
func NewRecord(id int64, initialRating int) RatingRecord {
	return RatingRecord{
		ID:           id,
		Rating:       initialRating,
		PeakRating:   initialRating,
		LowestRating: initialRating,
		Provisional:  true,
	}
}

// ApplyWin records a won comparison at the given post-update rating.
// flagThreshold is the game count at which the provisional flag clears.
func (r *RatingRecord) ApplyWin(newRating, flagThreshold int) {
	r.Rating = newRating
	r.Games++
	r.Wins++
	if r.CurrentStreak >= 0 {
		r.CurrentStreak++
	} else {
		r.CurrentStreak = 1
	}
	r.refreshDerived(flagThreshold)
}

// ApplyLoss records a lost comparison at the given post-update rating.
func (r *RatingRecord) ApplyLoss(newRating, flagThreshold int) {
	r.Rating = newRating
	r.Games++
	r.Losses++
	if r.CurrentStreak <= 0 {
		r.CurrentStreak--
	} else {
		r.CurrentStreak = -1
	}
	r.refreshDerived(flagThreshold)
}

// refreshDerived recomputes every cached projection from the authoritative
// counters. Derived fields are never mutated independently.
func (r *RatingRecord) refreshDerived(flagThreshold int) {
	if r.Rating > r.PeakRating {
		r.PeakRating = r.Rating
	}
	if r.Rating < r.LowestRating {
		r.LowestRating = r.Rating
	}
	if r.Games > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Games) * 100
	} else {
		r.WinRate = 0
	}
	r.Provisional = r.Games < flagThreshold
}

// Consistent reports whether the record's counters agree with each other.
// A false result indicates a partial write or double count upstream.
func (r *RatingRecord) Consistent() bool {
	return r.Games == r.Wins+r.Losses && r.Games >= 0 && r.Wins >= 0 && r.Losses >= 0
}

// Repair recalculates Games from Wins+Losses and rebuilds the derived
// projections. It is idempotent and only touches fields computable from the
// win/loss counters; ratings are left to a full recompute.
func (r *RatingRecord) Repair(flagThreshold int) {
	r.Games = r.Wins + r.Losses
	if r.Games > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Games) * 100
	} else {
		r.WinRate = 0
	}
	r.Provisional = r.Games < flagThreshold
}
