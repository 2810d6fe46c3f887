package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/herolab/herorank/internal/domain/replay"
	"github.com/herolab/herorank/pkg/logger"
	"github.com/herolab/herorank/pkg/metrics"
)

// RecomputeReport summarizes a batch recompute run.
type RecomputeReport struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Heroes  int `json:"heroes"`
}

// ConsistencyReport is the result of an invariant scan.
type ConsistencyReport struct {
	Consistent  bool    `json:"consistent"`
	BrokenIDs   []int64 `json:"broken_ids,omitempty"`
	TotalWins   int     `json:"total_wins"`
	LoggedVotes int     `json:"logged_votes"`
}

// Recompute rebuilds the whole rating store by replaying the vote log
// through the live calculator. Exactly one recompute may run at a time;
// live votes are rejected with ErrRecomputeInProgress for its duration.
// The operation is idempotent: rerunning it over the same log yields the
// same store.
func (s *Service) Recompute(ctx context.Context) (RecomputeReport, error) {
	if !s.recomputing.CompareAndSwap(false, true) {
		return RecomputeReport{}, ErrRecomputeInProgress
	}
	defer s.recomputing.Store(false)

	// Hold the write mutex too: workers already past the flag check must
	// drain before the replay owns the store.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()

	votes, err := s.votes.All(ctx)
	if err != nil {
		return RecomputeReport{}, fmt.Errorf("%w: read vote log: %w", ErrStorage, err)
	}

	res, err := replay.Run(ctx, votes, s.calc)
	if err != nil {
		return RecomputeReport{}, err
	}

	if err := s.store.Replace(ctx, res.Records); err != nil {
		return RecomputeReport{}, fmt.Errorf("%w: replace store: %w", ErrStorage, err)
	}

	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordRecomputeRun()
	metrics.RecordRecomputeDuration(ms)
	metrics.RecordRecomputeSkipped(res.Skipped)

	s.logger.Info(ctx, "recompute finished",
		logger.Int("applied", res.Applied),
		logger.Int("skipped", res.Skipped),
		logger.Int("heroes", len(res.Records)),
		logger.Float64("durationMs", ms),
	)

	return RecomputeReport{
		Applied: res.Applied,
		Skipped: res.Skipped,
		Heroes:  len(res.Records),
	}, nil
}

// CheckConsistency scans every record for the store-wide invariants:
// games == wins + losses per record, and total wins equal to the number of
// logged votes. It detects partial writes and double counts; it never
// repairs them.
func (s *Service) CheckConsistency(ctx context.Context) (ConsistencyReport, error) {
	metrics.RecordConsistencyScan()

	records, err := s.store.All(ctx)
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("%w: scan records: %w", ErrStorage, err)
	}

	report := ConsistencyReport{LoggedVotes: s.votes.Len(ctx)}
	for i := range records {
		if !records[i].Consistent() {
			report.BrokenIDs = append(report.BrokenIDs, records[i].ID)
		}
		report.TotalWins += records[i].Wins
	}
	sort.Slice(report.BrokenIDs, func(i, j int) bool { return report.BrokenIDs[i] < report.BrokenIDs[j] })
	report.Consistent = len(report.BrokenIDs) == 0 && report.TotalWins == report.LoggedVotes

	metrics.UpdateInconsistentRecords(len(report.BrokenIDs))
	if !report.Consistent {
		s.logger.Warn(ctx, "consistency scan failed",
			logger.Int("brokenRecords", len(report.BrokenIDs)),
			logger.Int("totalWins", report.TotalWins),
			logger.Int("loggedVotes", report.LoggedVotes),
		)
	}
	return report, nil
}

// Repair applies the targeted arithmetic fix to records that fail the
// per-record invariant: games is recalculated from wins+losses and the
// derived projections are rebuilt. Ratings are not touched; when the log
// and counters disagree, Recompute is the authoritative repair.
func (s *Service) Repair(ctx context.Context) (int, error) {
	metrics.RecordConsistencyRepair()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: scan records: %w", ErrStorage, err)
	}

	repaired := 0
	for i := range records {
		if records[i].Consistent() {
			continue
		}
		rec := records[i]
		rec.Repair(s.calc.FlagThreshold())
		if err := s.store.Put(ctx, rec); err != nil {
			return repaired, fmt.Errorf("%w: write repaired record %d: %w", ErrStorage, rec.ID, err)
		}
		repaired++
	}

	if repaired > 0 {
		s.logger.Info(ctx, "repaired inconsistent records", logger.Int("repaired", repaired))
	}
	return repaired, nil
}
