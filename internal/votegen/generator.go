package votegen

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/herolab/herorank/pkg/logger"
)

// Strength distribution for the simulated roster. True strengths are drawn
// around a 1500 center so the logistic matchup model mirrors the service's
// expected-score curve.
const (
	strengthCenter = 1500.0
	strengthSpread = 300.0
	logisticBase   = 10.0
	logisticScale  = 400.0
)

// voteSubmission is the wire form of a single generated vote.
type voteSubmission struct {
	VoteID   string `json:"vote_id"`
	WinnerID int64  `json:"winner_id"`
	LoserID  int64  `json:"loser_id"`
	TS       string `json:"ts"`
}

// roster holds the hidden true strengths the generator samples matches from.
type roster struct {
	strengths map[int64]float64
	ids       []int64
}

// newRoster assigns every hero a hidden strength from a normal-ish
// distribution. The same seed always produces the same roster.
func newRoster(heroes int, rng *rand.Rand) *roster {
	r := &roster{
		strengths: make(map[int64]float64, heroes),
		ids:       make([]int64, 0, heroes),
	}
	for i := 0; i < heroes; i++ {
		id := int64(i + 1)
		r.ids = append(r.ids, id)
		r.strengths[id] = strengthCenter + rng.NormFloat64()*strengthSpread
	}
	return r
}

// winProbability is the chance the hero with strength a beats the hero with
// strength b under the logistic matchup model.
func winProbability(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(logisticBase, (b-a)/logisticScale))
}

// generateVotes samples random pairings and decides each winner by the hidden
// strengths, so a converged ranking should roughly recover the roster order.
func generateVotes(ctx context.Context, config *Config, stats *Stats) ([]voteSubmission, *roster, error) {
	logger.Get().Info(ctx, "generating votes",
		logger.Int("votes", config.NumVotes),
		logger.Int("heroes", config.Heroes),
		logger.Int64("seed", config.Seed))

	rng := rand.New(rand.NewSource(config.Seed))
	r := newRoster(config.Heroes, rng)

	votes := make([]voteSubmission, 0, config.NumVotes)
	now := time.Now().UTC()
	for i := 0; i < config.NumVotes; i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		a := r.ids[rng.Intn(len(r.ids))]
		b := r.ids[rng.Intn(len(r.ids))]
		for b == a {
			b = r.ids[rng.Intn(len(r.ids))]
		}

		winner, loser := a, b
		if rng.Float64() >= winProbability(r.strengths[a], r.strengths[b]) {
			winner, loser = b, a
		}

		votes = append(votes, voteSubmission{
			VoteID:   uuid.New().String(),
			WinnerID: winner,
			LoserID:  loser,
			TS:       now.Add(time.Duration(i) * time.Millisecond).Format(time.RFC3339Nano),
		})
	}

	stats.VotesGenerated = len(votes)
	logger.Get().Info(ctx, "generated votes", logger.Int("count", len(votes)))
	return votes, r, nil
}
