// Package queue defines the contract for enqueuing and consuming votes.
//
// Bulk vote imports flow through this queue to the worker pool; the
// interactive voting path applies synchronously and never queues.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 100000
)

// Vote is the payload type flowing through the queue.
type Vote = model.Vote

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a vote to the queue.
	// Returns false if the queue is full and the vote was not enqueued.
	Enqueue(ctx context.Context, v Vote) bool

	// Dequeue returns a channel that receives votes as they become
	// available. The channel closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan Vote

	// Len returns the current number of queued votes.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new votes
	// can be enqueued and the dequeue channel drains then closes.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	votes    chan Vote
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.votes = make(chan Vote, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a vote to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, v Vote) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.votes <- v:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.votes))
		metrics.UpdateQueueUtilization(float64(len(q.votes)) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives votes as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Vote {
	out := make(chan Vote)
	go func() {
		defer close(out)
		for v := range q.votes {
			select {
			case out <- v:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.votes))
				metrics.UpdateQueueUtilization(float64(len(q.votes)) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued votes.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.votes)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.votes)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
