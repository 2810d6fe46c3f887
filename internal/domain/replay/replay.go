// Package replay rebuilds rating state from the historical vote log.
//
// Replay is the authority on correctness: it runs the exact calculator and
// record mutation rules the live path uses, so replaying the log a second
// time (or during a repair) yields bit-identical records.
package replay

import (
	"context"
	"fmt"
	"sort"

	"github.com/herolab/herorank/internal/domain/elo"
	"github.com/herolab/herorank/internal/domain/model"
)

// Result summarizes one replay run.
type Result struct {
	// Records maps hero ID to the rebuilt rating record.
	Records map[int64]model.RatingRecord
	// Applied counts votes that updated ratings.
	Applied int
	// Skipped counts invalid votes (self-comparison, bad hero IDs). They
	// are counted, never fatal to the run.
	Skipped int
}

// Run replays votes through calc into a fresh, locally scoped accumulator.
//
// Elo updates are order dependent, so votes are sorted by timestamp
// ascending first; timestamp ties break by the log's monotonic sequence
// number, which preserves arrival order deterministically. The input slice
// is not modified. Cancellation is checked between votes; a canceled run
// returns ctx.Err and no partial result.
func Run(ctx context.Context, votes []model.Vote, calc *elo.Calculator) (Result, error) {
	ordered := make([]model.Vote, len(votes))
	copy(ordered, votes)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TS.Equal(ordered[j].TS) {
			return ordered[i].TS.Before(ordered[j].TS)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	res := Result{Records: make(map[int64]model.RatingRecord)}
	for _, v := range ordered {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("replay canceled: %w", ctx.Err())
		default:
		}

		if err := v.Validate(); err != nil {
			res.Skipped++
			continue
		}

		winner := fetch(res.Records, v.WinnerID, calc)
		loser := fetch(res.Records, v.LoserID, calc)

		up := calc.NewRatings(winner.Rating, loser.Rating, winner.Games, loser.Games)
		winner.ApplyWin(up.NewWinnerRating, calc.FlagThreshold())
		loser.ApplyLoss(up.NewLoserRating, calc.FlagThreshold())

		res.Records[winner.ID] = winner
		res.Records[loser.ID] = loser
		res.Applied++
	}
	return res, nil
}

// fetch returns the accumulated record for id, defaulting lazily exactly as
// the live path does.
func fetch(records map[int64]model.RatingRecord, id int64, calc *elo.Calculator) model.RatingRecord {
	if r, ok := records[id]; ok {
		return r
	}
	return model.NewRecord(id, calc.InitialRating())
}
