// Package repository defines the rating store interface and errors.
package repository

import (
	"context"

	"github.com/herolab/herorank/internal/domain/model"
)

// Entry pairs a rating record with its current rank.
type Entry struct {
	Rank   int
	Record model.RatingRecord
}

// Store provides read/write access to hero rating records.
//
// CommitPair is the only write the live voting path uses: both sides of a
// comparison land in one call so a reader never observes a half-applied
// vote.
type Store interface {
	// Get returns the record for a hero.
	// Returns ErrNotFound if the hero is unknown.
	Get(ctx context.Context, heroID int64) (model.RatingRecord, error)

	// CommitPair upserts the winner and loser records of one comparison
	// atomically.
	CommitPair(ctx context.Context, winner, loser model.RatingRecord) error

	// Put upserts a single record. Used by the consistency repair pass,
	// never by vote application.
	Put(ctx context.Context, rec model.RatingRecord) error

	// Rank returns the current rank and record for a hero.
	// Returns ErrNotFound if the hero is unknown.
	Rank(ctx context.Context, heroID int64) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// All returns every record, in no particular order.
	All(ctx context.Context) ([]model.RatingRecord, error)

	// Replace atomically swaps the entire store contents for the given
	// records. Used by batch recompute (clear-then-write).
	Replace(ctx context.Context, records map[int64]model.RatingRecord) error

	// Count returns the number of heroes tracked.
	Count(ctx context.Context) int
}
