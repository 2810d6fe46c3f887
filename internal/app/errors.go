package service

import "errors"

// Sentinel kinds for rating service errors.
var (
	// ErrInvalidComparison marks votes the engine refuses: self-comparison
	// or malformed hero IDs. Never retried.
	ErrInvalidComparison = errors.New("invalid comparison")

	// ErrStorage marks a failed read or write against the rating store.
	// The service does not retry; retry policy belongs to the caller.
	ErrStorage = errors.New("rating store failure")

	// ErrInconsistentState marks a record whose counters disagree
	// (games != wins + losses). Requires an explicit repair pass.
	ErrInconsistentState = errors.New("inconsistent rating state")

	// ErrRecomputeInProgress rejects live votes while a batch replay owns
	// the store.
	ErrRecomputeInProgress = errors.New("recompute in progress")
)
