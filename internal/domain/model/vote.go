// Package model contains domain models passed between layers.
package model

import "time"

// Vote represents a single pairwise comparison: one hero beat another.
// Fields mirror the JSON schema for POST /votes.
type Vote struct {
	VoteID   string    // unique id for idempotency
	WinnerID int64     // hero chosen by the voter
	LoserID  int64     // hero not chosen
	TS       time.Time // client-reported vote time
	Seq      uint64    // monotonic sequence assigned by the vote log at append
}

// Validate reports whether the vote can legally enter the rating engine.
// A hero cannot beat itself, and hero IDs are positive catalog identifiers.
func (v Vote) Validate() error {
	if v.WinnerID <= 0 || v.LoserID <= 0 {
		return ErrInvalidHero
	}
	if v.WinnerID == v.LoserID {
		return ErrSelfComparison
	}
	return nil
}

// Outcome reports the rating movement produced by one comparison. This is
// the only state the voting UI needs for immediate feedback.
type Outcome struct {
	WinnerChange    int `json:"winner_change"`
	LoserChange     int `json:"loser_change"`
	NewWinnerRating int `json:"new_winner_rating"`
	NewLoserRating  int `json:"new_loser_rating"`
}
