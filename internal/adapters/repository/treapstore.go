// Package repository defines the rating store interface and errors.
package repository

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then hero ID ASC (deterministic). "Less" means
// ranks earlier, so an in-order traversal produces the ranking from best to
// worst. Elo ratings are integers, so the key needs no scaling.

// Default snapshot configuration.
const (
	defaultSnapshotInterval = 1 * time.Second
	defaultTopCacheSize     = 500
	metricsUpdateInterval   = 5 * time.Second
)

// Snapshot is an immutable view of the ranking published periodically for
// cheap dashboard reads.
type Snapshot struct {
	RankByHero   map[int64]int
	RatingByHero map[int64]int
	TopCache     []Entry // best-to-worst, at most topCacheSize entries
}

// treap node
type node struct {
	id     int64
	rating int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aRating, aID) ranks earlier than (bRating, bID).
func less(aRating int, aID int64, bRating int, bID int64) bool {
	if aRating != bRating {
		return aRating > bRating // higher rating ranks earlier
	}
	return aID < bID // tie-breaker by hero id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// ratingToPriority keeps higher ratings nearer the treap root. The offset
// shifts negative ratings into the unsigned range.
func ratingToPriority(rating int) uint64 {
	const offset = uint64(1) << 63
	return uint64(int64(rating)) + offset
}

func insert(n *node, id int64, rating int) *node {
	if n == nil {
		return &node{id: id, rating: rating, prio: ratingToPriority(rating), size: 1}
	}
	if less(rating, id, n.rating, n.id) {
		n.left = insert(n.left, id, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id int64, rating int) *node {
	if n == nil {
		return nil
	}
	if rating == n.rating && id == n.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	} else if less(rating, id, n.rating, n.id) {
		n.left = deleteNode(n.left, id, rating)
	} else {
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order (best first).
func collectTopN(n *node, limit int, records map[int64]model.RatingRecord, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, Entry{Record: rec})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// collectAll appends every entry in rank order (best first).
func collectAll(n *node, records map[int64]model.RatingRecord, out *[]Entry) {
	if n == nil {
		return
	}
	collectAll(n.left, records, out)
	if rec, ok := records[n.id]; ok {
		*out = append(*out, Entry{Record: rec})
	}
	collectAll(n.right, records, out)
}

// assignRanksWithTies assigns ranks over entries already in rank order.
// Heroes with the same rating share a rank; the next distinct rating takes
// the following consecutive rank.
func assignRanksWithTies(entries []Entry) {
	currentRank := 0
	for i := range entries {
		if i == 0 || entries[i].Record.Rating != entries[i-1].Record.Rating {
			currentRank++
		}
		entries[i].Rank = currentRank
	}
}

// TreapStore is the in-memory rating store used in production.
type TreapStore struct {
	mu               sync.RWMutex
	root             *node
	byID             map[int64]model.RatingRecord
	snapshotInterval time.Duration
	topCacheSize     int

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		snapshotInterval: defaultSnapshotInterval,
		topCacheSize:     defaultTopCacheSize,
		byID:             make(map[int64]model.RatingRecord),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startPeriodicSnapshots(ctx)
	s.startMetricsUpdater(ctx)

	return s
}

// startPeriodicSnapshots publishes read snapshots at the configured interval.
func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

func (s *TreapStore) publishSnapshot() {
	start := time.Now()
	s.mu.RLock()
	snap := s.buildSnapshot()
	s.mu.RUnlock()
	s.snapshot.Store(snap)

	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordRepositorySnapshotRebuildDuration(ms)
	metrics.UpdateRepositorySnapshotLastUnix(float64(time.Now().Unix()))
	metrics.IncrementRepositorySnapshotCount()
}

// buildSnapshot assumes at least a read lock is held.
func (s *TreapStore) buildSnapshot() *Snapshot {
	all := make([]Entry, 0, len(s.byID))
	collectAll(s.root, s.byID, &all)
	assignRanksWithTies(all)

	rankByHero := make(map[int64]int, len(all))
	ratingByHero := make(map[int64]int, len(all))
	for _, e := range all {
		rankByHero[e.Record.ID] = e.Rank
		ratingByHero[e.Record.ID] = e.Record.Rating
	}

	top := all
	if len(top) > s.topCacheSize {
		top = top[:s.topCacheSize]
	}
	topCache := make([]Entry, len(top))
	copy(topCache, top)

	return &Snapshot{
		RankByHero:   rankByHero,
		RatingByHero: ratingByHero,
		TopCache:     topCache,
	}
}

// LatestSnapshot returns the most recently published snapshot, or nil when
// none has been published yet.
func (s *TreapStore) LatestSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// Close gracefully shuts down the background goroutines.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(ctx context.Context, heroID int64) (model.RatingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[heroID]
	if !ok {
		return model.RatingRecord{}, ErrNotFound
	}
	return rec, nil
}

// CommitPair implements Store.CommitPair with O(log n) expected time per
// record. Both upserts happen under one write lock so no reader can observe
// a vote applied to only one side.
func (s *TreapStore) CommitPair(ctx context.Context, winner, loser model.RatingRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	s.upsertLocked(winner)
	s.upsertLocked(loser)
	total := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(total)
	return nil
}

// Put implements Store.Put.
func (s *TreapStore) Put(ctx context.Context, rec model.RatingRecord) error {
	s.mu.Lock()
	s.upsertLocked(rec)
	total := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(total)
	return nil
}

// upsertLocked assumes the write lock is held.
func (s *TreapStore) upsertLocked(rec model.RatingRecord) {
	if old, ok := s.byID[rec.ID]; ok {
		s.root = deleteNode(s.root, old.ID, old.Rating)
	}
	s.byID[rec.ID] = rec
	s.root = insert(s.root, rec.ID, rec.Rating)
}

// Rank returns the current rank and record for a hero in O(n); ranking
// reads go through snapshots or TopN in the hot path.
func (s *TreapStore) Rank(ctx context.Context, heroID int64) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[heroID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	all := make([]Entry, 0, len(s.byID))
	collectAll(s.root, s.byID, &all)
	assignRanksWithTies(all)

	for _, e := range all {
		if e.Record.ID == heroID {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// TopN returns the top N entries ordered by rating desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.root, n, s.byID, &out)
	// Rank ties against the entry above the cut need the full ordering only
	// when ratings repeat across the boundary; consecutive ranking within
	// the slice matches the global ranking because the slice is a prefix.
	assignRanksWithTies(out)
	return out, nil
}

// All implements Store.All.
func (s *TreapStore) All(ctx context.Context) ([]model.RatingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RatingRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	return out, nil
}

// Replace implements Store.Replace: clear-then-write under one lock.
func (s *TreapStore) Replace(ctx context.Context, records map[int64]model.RatingRecord) error {
	s.mu.Lock()
	s.root = nil
	s.byID = make(map[int64]model.RatingRecord, len(records))
	for id, rec := range records {
		s.byID[id] = rec
		s.root = insert(s.root, id, rec.Rating)
	}
	total := len(s.byID)
	snap := s.buildSnapshot()
	s.mu.Unlock()

	// Publish immediately so reads reflect the recompute without waiting a
	// snapshot tick.
	s.snapshot.Store(snap)
	metrics.UpdateRepositoryRecordsTotal(total)
	return nil
}

// Count returns the total number of heroes.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater refreshes repository gauges in the background.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				total := len(s.byID)
				s.mu.RUnlock()
				metrics.UpdateRepositoryRecordsTotal(total)
			}
		}
	}()
}

// depth is only used by tests and benchmarks to sanity-check balance.
func (s *TreapStore) depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var walk func(*node) int
	walk = func(n *node) int {
		if n == nil {
			return 0
		}
		return 1 + int(math.Max(float64(walk(n.left)), float64(walk(n.right))))
	}
	return walk(s.root)
}
