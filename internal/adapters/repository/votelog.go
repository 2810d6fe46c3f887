package repository

import (
	"context"
	"sync"

	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/pkg/metrics"
)

// VoteLog is the append-only record of comparison events. It is the
// authority the rating store can always be rebuilt from; there is no way to
// truncate it through this interface.
type VoteLog interface {
	// Append stores the vote and returns it with its assigned monotonic
	// sequence number. Sequence numbers break timestamp ties during replay,
	// so wall-clock collisions from concurrent writers stay deterministic.
	Append(ctx context.Context, v model.Vote) (model.Vote, error)

	// All returns a copy of the log in arrival order.
	All(ctx context.Context) ([]model.Vote, error)

	// Len returns the number of logged votes.
	Len(ctx context.Context) int
}

// InMemoryVoteLog implements VoteLog with a mutex-guarded slice.
type InMemoryVoteLog struct {
	mu    sync.RWMutex
	votes []model.Vote
	seq   uint64
}

// NewInMemoryVoteLog creates an empty vote log.
func NewInMemoryVoteLog() *InMemoryVoteLog {
	return &InMemoryVoteLog{}
}

// Append implements VoteLog.Append.
func (l *InMemoryVoteLog) Append(ctx context.Context, v model.Vote) (model.Vote, error) {
	l.mu.Lock()
	l.seq++
	v.Seq = l.seq
	l.votes = append(l.votes, v)
	size := len(l.votes)
	l.mu.Unlock()

	metrics.UpdateVoteLogSize(size)
	return v, nil
}

// All implements VoteLog.All.
func (l *InMemoryVoteLog) All(ctx context.Context) ([]model.Vote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Vote, len(l.votes))
	copy(out, l.votes)
	return out, nil
}

// Len implements VoteLog.Len.
func (l *InMemoryVoteLog) Len(ctx context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.votes)
}
