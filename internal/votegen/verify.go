package votegen

import (
	"context"
	"fmt"
	"sort"

	"github.com/herolab/herorank/internal/domain/types"
	"github.com/herolab/herorank/pkg/logger"
)

// rankAgreementWindow is how deep into the hidden-strength order we look when
// measuring how well the leaderboard recovered it.
const rankAgreementWindow = 10

// verifyResults checks the leaderboard and the service's own consistency
// audit against what the generator submitted.
func verifyResults(ctx context.Context, config *Config, r *roster, rankings []types.Entry, report *consistencyReport, stats *Stats) error {
	if len(rankings) == 0 {
		return fmt.Errorf("no rankings to verify")
	}

	if err := verifyOrdering(rankings); err != nil {
		return err
	}
	if err := verifyCounts(rankings); err != nil {
		return err
	}

	if !report.Consistent {
		return fmt.Errorf("service reports inconsistent records: %v", report.BrokenIDs)
	}
	if report.TotalWins != report.LoggedVotes {
		return fmt.Errorf("total wins (%d) does not match logged votes (%d)",
			report.TotalWins, report.LoggedVotes)
	}
	if report.LoggedVotes != stats.VotesAccepted {
		return fmt.Errorf("logged votes (%d) does not match accepted submissions (%d)",
			report.LoggedVotes, stats.VotesAccepted)
	}

	agreement := rankAgreement(r, rankings)
	logger.Get().Info(ctx, "verification passed",
		logger.Int("rankings", len(rankings)),
		logger.Int("loggedVotes", report.LoggedVotes),
		logger.Float64("topStrengthAgreement", agreement))

	if config.Verbose {
		displayTopEntries(ctx, rankings)
	}
	return nil
}

// verifyOrdering checks the leaderboard is sorted by rating descending and
// that ranks never decrease.
func verifyOrdering(rankings []types.Entry) error {
	for i := 1; i < len(rankings); i++ {
		if rankings[i].Rating > rankings[i-1].Rating {
			return fmt.Errorf("rankings not sorted: entry %d has higher rating than entry %d", i, i-1)
		}
		if rankings[i].Rank < rankings[i-1].Rank {
			return fmt.Errorf("ranks not monotonic: entry %d has lower rank than entry %d", i, i-1)
		}
	}
	return nil
}

// verifyCounts checks per-entry bookkeeping: games must equal wins plus
// losses and the win rate must match the counts.
func verifyCounts(rankings []types.Entry) error {
	for _, e := range rankings {
		if e.Games != e.Wins+e.Losses {
			return fmt.Errorf("hero %d: games (%d) != wins (%d) + losses (%d)",
				e.HeroID, e.Games, e.Wins, e.Losses)
		}
		if e.Games > 0 {
			want := float64(e.Wins) / float64(e.Games) * 100.0
			if diff := e.WinRate - want; diff > 0.01 || diff < -0.01 {
				return fmt.Errorf("hero %d: win rate %.2f does not match %d/%d",
					e.HeroID, e.WinRate, e.Wins, e.Games)
			}
		}
	}
	return nil
}

// rankAgreement measures how many of the strongest heroes by hidden strength
// appear in the same window of the observed leaderboard. Convergence is
// statistical, so this is reported rather than asserted.
func rankAgreement(r *roster, rankings []types.Entry) float64 {
	window := rankAgreementWindow
	if len(r.ids) < window {
		window = len(r.ids)
	}
	if len(rankings) < window || window == 0 {
		return 0
	}

	byStrength := make([]int64, len(r.ids))
	copy(byStrength, r.ids)
	sort.Slice(byStrength, func(i, j int) bool {
		return r.strengths[byStrength[i]] > r.strengths[byStrength[j]]
	})

	top := make(map[int64]struct{}, window)
	for _, id := range byStrength[:window] {
		top[id] = struct{}{}
	}

	hits := 0
	for _, e := range rankings[:window] {
		if _, ok := top[e.HeroID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(window)
}

func displayTopEntries(ctx context.Context, rankings []types.Entry) {
	top := len(rankings)
	if top > rankAgreementWindow {
		top = rankAgreementWindow
	}
	for _, e := range rankings[:top] {
		logger.Get().Info(ctx, "leaderboard entry",
			logger.Int("rank", e.Rank),
			logger.Int64("heroID", e.HeroID),
			logger.Int("rating", e.Rating),
			logger.Int("games", e.Games),
			logger.Float64("winRate", e.WinRate),
			logger.String("confidence", e.Confidence))
	}
}
