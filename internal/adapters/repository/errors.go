package repository

import "errors"

// Sentinel kinds for rating store errors.
var (
	ErrNotFound     = errors.New("hero not found")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
