package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/herolab/herorank/internal/domain/model"
)

func record(id int64, rating, games, wins int) model.RatingRecord {
	rec := model.NewRecord(id, rating)
	rec.Games = games
	rec.Wins = wins
	rec.Losses = games - wins
	return rec
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	// Empty store
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Get(ctx, 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Commit a pair of records
	if err := store.CommitPair(ctx, record(1, 1524, 1, 1), record(2, 1476, 1, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	// Get returns the stored record
	rec, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Rating != 1524 {
		t.Errorf("expected rating 1524, got %d", rec.Rating)
	}

	// Rank query
	entry, err := store.Rank(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 {
		t.Errorf("expected rank 1, got %d", entry.Rank)
	}
	entry, err = store.Rank(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 2 {
		t.Errorf("expected rank 2, got %d", entry.Rank)
	}

	// TopN
	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Record.ID != 1 {
		t.Errorf("expected hero 1 first, got %d", entries[0].Record.ID)
	}
}

func TestTreapStore_CommitPairReplacesOldKeys(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	if err := store.CommitPair(ctx, record(1, 1524, 1, 1), record(2, 1476, 1, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second vote reverses the outcome; both records move again.
	if err := store.CommitPair(ctx, record(2, 1500, 2, 1), record(1, 1500, 2, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := store.Count(ctx); count != 2 {
		t.Fatalf("expected count 2 after re-commit, got %d", count)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Equal ratings: both share rank 1, id asc order.
	if entries[0].Record.ID != 1 || entries[1].Record.ID != 2 {
		t.Errorf("expected id-ascending order on rating tie, got %d then %d",
			entries[0].Record.ID, entries[1].Record.ID)
	}
	if entries[0].Rank != 1 || entries[1].Rank != 1 {
		t.Errorf("expected shared rank 1, got %d and %d", entries[0].Rank, entries[1].Rank)
	}
}

func TestTreapStore_Ordering(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	heroes := []struct {
		id     int64
		rating int
	}{
		{1, 1520},
		{2, 1610},
		{3, 1444},
		{4, 1702},
		{5, 1500},
	}
	for _, h := range heroes {
		if err := store.Put(ctx, record(h.id, h.rating, 10, 5)); err != nil {
			t.Fatalf("unexpected error putting hero %d: %v", h.id, err)
		}
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Record.Rating < entries[i+1].Record.Rating {
			t.Errorf("entries not in descending order: %d < %d",
				entries[i].Record.Rating, entries[i+1].Record.Rating)
		}
	}

	expectedOrder := []int64{4, 2, 1, 5, 3}
	for i, id := range expectedOrder {
		if entries[i].Record.ID != id {
			t.Errorf("position %d: expected hero %d, got %d", i, id, entries[i].Record.ID)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}
}

func TestTreapStore_RankTies(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	ratings := map[int64]int{1: 1600, 2: 1600, 3: 1500, 4: 1500, 5: 1400}
	for id, rating := range ratings {
		if err := store.Put(ctx, record(id, rating, 5, 3)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantRanks := []int{1, 1, 2, 2, 3}
	for i, want := range wantRanks {
		if entries[i].Rank != want {
			t.Errorf("position %d: expected rank %d, got %d", i, want, entries[i].Rank)
		}
	}
}

func TestTreapStore_TopNLimits(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	for i := int64(1); i <= 20; i++ {
		if err := store.Put(ctx, record(i, 1500+int(i), 5, 3)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := store.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries, got %d", len(entries))
	}
	if entries[0].Record.ID != 20 {
		t.Errorf("expected hero 20 first, got %d", entries[0].Record.ID)
	}

	if _, err := store.TopN(ctx, 0); err != ErrInvalidLimit {
		t.Errorf("expected ErrInvalidLimit for n=0, got %v", err)
	}
}

func TestTreapStore_NegativeRatings(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	// Ratings are unbounded; a long losing streak can go below zero.
	if err := store.Put(ctx, record(1, -40, 30, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put(ctx, record(2, 120, 30, 25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].Record.ID != 2 || entries[1].Record.ID != 1 {
		t.Errorf("expected hero 2 above hero 1, got %d then %d",
			entries[0].Record.ID, entries[1].Record.ID)
	}
}

func TestTreapStore_Replace(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	for i := int64(1); i <= 10; i++ {
		if err := store.Put(ctx, record(i, 1500, 1, 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rebuilt := map[int64]model.RatingRecord{
		7: record(7, 1560, 4, 3),
		8: record(8, 1440, 4, 1),
	}
	if err := store.Replace(ctx, rebuilt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2 after replace, got %d", count)
	}
	if _, err := store.Get(ctx, 1); err != ErrNotFound {
		t.Errorf("expected old record to be gone, got %v", err)
	}

	// Replace publishes a snapshot immediately.
	snap := store.LatestSnapshot()
	if snap == nil {
		t.Fatal("expected snapshot after replace")
	}
	if snap.RankByHero[7] != 1 {
		t.Errorf("expected hero 7 at rank 1 in snapshot, got %d", snap.RankByHero[7])
	}
	if snap.RatingByHero[8] != 1440 {
		t.Errorf("expected hero 8 rating 1440 in snapshot, got %d", snap.RatingByHero[8])
	}
}

func TestTreapStore_PeriodicSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx, WithSnapshotInterval(20*time.Millisecond), WithTopCacheSize(3))
	defer store.Close()

	for i := int64(1); i <= 5; i++ {
		if err := store.Put(ctx, record(i, 1500+int(i)*10, 5, 3)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	var snap *Snapshot
	for time.Now().Before(deadline) {
		if snap = store.LatestSnapshot(); snap != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap == nil {
		t.Fatal("snapshot was never published")
	}

	if len(snap.TopCache) != 3 {
		t.Errorf("expected top cache capped at 3, got %d", len(snap.TopCache))
	}
	if snap.TopCache[0].Record.ID != 5 {
		t.Errorf("expected hero 5 first in top cache, got %d", snap.TopCache[0].Record.ID)
	}
	if len(snap.RankByHero) != 5 {
		t.Errorf("expected 5 heroes in rank map, got %d", len(snap.RankByHero))
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				winner := record(int64(w*perWriter+i+1), 1500+rand.Intn(200), i+1, i)
				loser := record(int64(w*perWriter+i+1+writers*perWriter), 1500-rand.Intn(200), i+1, 0)
				if err := store.CommitPair(ctx, winner, loser); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}(w)
	}

	// Readers run alongside writers.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, err := store.TopN(ctx, 10); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != 2*writers*perWriter {
		t.Errorf("expected %d records, got %d", 2*writers*perWriter, count)
	}
}

func TestTreapStore_BalancedDepth(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	const n = 4096
	for i := int64(1); i <= n; i++ {
		if err := store.Put(ctx, record(i, 1000+rand.Intn(1000), 10, 5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// The rating-derived priorities keep the treap within a small factor of
	// the balanced depth for spread-out ratings.
	maxDepth := store.depth()
	balanced := int(math.Ceil(math.Log2(float64(n + 1))))
	if maxDepth > balanced*8 {
		t.Errorf("treap depth %d exceeds %d for %d records", maxDepth, balanced*8, n)
	}
}

func TestInMemoryVoteLog(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryVoteLog()

	if log.Len(ctx) != 0 {
		t.Errorf("expected empty log, got %d entries", log.Len(ctx))
	}

	// Append assigns monotonically increasing sequence numbers.
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		v := model.Vote{
			VoteID:   fmt.Sprintf("v%d", i),
			WinnerID: int64(i + 1),
			LoserID:  int64(i + 2),
			TS:       base,
		}
		stored, err := log.Append(ctx, v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Seq != uint64(i+1) {
			t.Errorf("vote %d: expected seq %d, got %d", i, i+1, stored.Seq)
		}
	}
	if log.Len(ctx) != 5 {
		t.Errorf("expected 5 entries, got %d", log.Len(ctx))
	}

	// All returns a copy in arrival order.
	all, err := log.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range all {
		if v.VoteID != fmt.Sprintf("v%d", i) {
			t.Errorf("position %d: expected v%d, got %s", i, i, v.VoteID)
		}
	}
	all[0].VoteID = "mutated"
	again, err := log.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again[0].VoteID != "v0" {
		t.Error("mutating the returned slice changed the log")
	}
}

func TestInMemoryVoteLog_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryVoteLog()

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	seqs := make([][]uint64, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v, err := log.Append(ctx, model.Vote{
					VoteID:   fmt.Sprintf("g%d-v%d", g, i),
					WinnerID: 1,
					LoserID:  2,
					TS:       time.Now(),
				})
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				seqs[g] = append(seqs[g], v.Seq)
			}
		}(g)
	}
	wg.Wait()

	if log.Len(ctx) != goroutines*perGoroutine {
		t.Fatalf("expected %d entries, got %d", goroutines*perGoroutine, log.Len(ctx))
	}

	// Sequence numbers are unique across goroutines.
	seen := make(map[uint64]bool)
	for _, gs := range seqs {
		for _, s := range gs {
			if seen[s] {
				t.Fatalf("duplicate sequence number %d", s)
			}
			seen[s] = true
		}
	}
}
