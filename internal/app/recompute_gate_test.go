package service

import (
	"context"
	"testing"
	"time"

	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/pkg/logger"
)

// A vote accepted into the queue must survive a batch recompute window:
// workers hold it until the store takes writes again, and its ID stays
// deduplicated because it was eventually applied.
func TestQueuedVoteHeldDuringRecompute(t *testing.T) {
	_ = logger.Init("text")

	svc := New(WithWorkerCount(2), WithQueueSize(16))
	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Stop()

	svc.recomputing.Store(true)

	v := model.Vote{VoteID: "held-1", WinnerID: 1, LoserID: 2, TS: time.Now()}
	if svc.SeenAndRecord(ctx, v.VoteID) {
		t.Fatal("fresh vote id reported as seen")
	}
	if !svc.Enqueue(ctx, v) {
		t.Fatal("enqueue failed")
	}

	// Give a worker time to dequeue and hit the recompute guard.
	time.Sleep(150 * time.Millisecond)
	if n := svc.votes.Len(ctx); n != 0 {
		t.Fatalf("vote applied while the store was held: log len=%d", n)
	}

	svc.recomputing.Store(false)

	deadline := time.Now().Add(5 * time.Second)
	for svc.votes.Len(ctx) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("held vote never applied: log len=%d", svc.votes.Len(ctx))
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !svc.SeenAndRecord(ctx, v.VoteID) {
		t.Fatal("applied vote id lost from the deduper")
	}
}
