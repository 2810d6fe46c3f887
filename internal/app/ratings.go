package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	workerpool "github.com/herolab/herorank/internal/adapters/mq/worker"
	"github.com/herolab/herorank/internal/adapters/repository"
	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/internal/domain/types"
	"github.com/herolab/herorank/pkg/logger"
	"github.com/herolab/herorank/pkg/metrics"
)

// ApplyComparison records that winnerID beat loserID and returns the rating
// movement for both sides. A vote ID and timestamp are generated here; use
// ApplyVote to preserve a client-supplied identity.
func (s *Service) ApplyComparison(ctx context.Context, winnerID, loserID int64) (model.Outcome, error) {
	return s.ApplyVote(ctx, model.Vote{
		VoteID:   uuid.NewString(),
		WinnerID: winnerID,
		LoserID:  loserID,
		TS:       time.Now(),
	})
}

// ApplyVote applies one comparison as a single logical unit: read or
// default-create both records, run the calculator, mutate both sides,
// append to the vote log, and commit the pair atomically.
//
// Either both records are updated or neither is observable as updated; the
// paired commit and the write mutex guarantee that. Failures surface as
// ErrInvalidComparison or ErrStorage without internal retries.
func (s *Service) ApplyVote(ctx context.Context, v model.Vote) (model.Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRatingUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := v.Validate(); err != nil {
		metrics.RecordVoteInvalid()
		return model.Outcome{}, fmt.Errorf("%w: %w", ErrInvalidComparison, err)
	}
	if s.recomputing.Load() {
		// Wrapped as retryable: a queued vote was already accepted, so
		// workers hold it until the replay releases the store instead of
		// dropping it.
		return model.Outcome{}, fmt.Errorf("%w: %w", ErrRecomputeInProgress, workerpool.ErrBusy)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	winner, err := s.fetchOrCreate(ctx, v.WinnerID)
	if err != nil {
		return model.Outcome{}, err
	}
	loser, err := s.fetchOrCreate(ctx, v.LoserID)
	if err != nil {
		return model.Outcome{}, err
	}

	up := s.calc.NewRatings(winner.Rating, loser.Rating, winner.Games, loser.Games)
	winner.ApplyWin(up.NewWinnerRating, s.calc.FlagThreshold())
	loser.ApplyLoss(up.NewLoserRating, s.calc.FlagThreshold())

	if _, err := s.votes.Append(ctx, v); err != nil {
		return model.Outcome{}, fmt.Errorf("%w: append vote log: %w", ErrStorage, err)
	}
	if err := s.store.CommitPair(ctx, winner, loser); err != nil {
		return model.Outcome{}, fmt.Errorf("%w: commit pair: %w", ErrStorage, err)
	}

	metrics.RecordVoteProcessed()
	s.logger.Debug(ctx, "comparison applied",
		logger.Int64("winnerID", v.WinnerID),
		logger.Int64("loserID", v.LoserID),
		logger.Int("winnerChange", up.WinnerChange),
		logger.Int("loserChange", up.LoserChange),
	)

	return model.Outcome{
		WinnerChange:    up.WinnerChange,
		LoserChange:     up.LoserChange,
		NewWinnerRating: up.NewWinnerRating,
		NewLoserRating:  up.NewLoserRating,
	}, nil
}

// fetchOrCreate reads a record, lazily defaulting unknown heroes.
func (s *Service) fetchOrCreate(ctx context.Context, heroID int64) (model.RatingRecord, error) {
	rec, err := s.store.Get(ctx, heroID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewRecord(heroID, s.calc.InitialRating()), nil
	}
	if err != nil {
		return model.RatingRecord{}, fmt.Errorf("%w: read record %d: %w", ErrStorage, heroID, err)
	}
	return rec, nil
}

// TopN returns the top N ranking entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = s.toEntry(e)
	}
	return out, nil
}

// Rank returns the ranking entry for a single hero.
func (s *Service) Rank(ctx context.Context, heroID int64) (types.Entry, error) {
	e, err := s.store.Rank(ctx, heroID)
	if err != nil {
		return types.Entry{}, err
	}
	return s.toEntry(e), nil
}

// Record returns the raw rating record for a hero.
func (s *Service) Record(ctx context.Context, heroID int64) (model.RatingRecord, error) {
	return s.store.Get(ctx, heroID)
}

// toEntry decorates a repository entry with the Wilson confidence view.
func (s *Service) toEntry(e repository.Entry) types.Entry {
	rec := e.Record
	return types.Entry{
		Rank:        e.Rank,
		HeroID:      rec.ID,
		Rating:      rec.Rating,
		Games:       rec.Games,
		Wins:        rec.Wins,
		Losses:      rec.Losses,
		WinRate:     rec.WinRate,
		WilsonScore: s.est.Score(rec.Wins, rec.Games),
		Confidence:  string(s.est.LevelFor(rec.Games)),
		Provisional: rec.Provisional,
	}
}
