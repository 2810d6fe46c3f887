package model

import "errors"

// Sentinel kinds for vote validation errors.
var (
	ErrSelfComparison = errors.New("hero cannot be compared with itself")
	ErrInvalidHero    = errors.New("invalid hero id")
)
