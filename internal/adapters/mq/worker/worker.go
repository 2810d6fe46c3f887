// Package worker defines worker contracts for asynchronous vote application.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/pkg/logger"
	"github.com/herolab/herorank/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
	busyRetryInterval       = 25 * time.Millisecond
)

// Vote is what workers read off the queue.
type Vote = model.Vote

// Applier applies one comparison to the rating store. The implementation
// serializes writes internally, so any number of workers may call it.
// Unrecord releases a vote ID the worker had to give up on, so a
// resubmission with the same ID is not reported as a duplicate.
type Applier interface {
	ApplyVote(ctx context.Context, v model.Vote) (model.Outcome, error)
	Unrecord(ctx context.Context, id string)
}

// Queue defines how workers receive votes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Vote
}

// Worker processes queued votes through the Applier.
type Worker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a new worker with configuration options.
func NewWorker(queue Queue, applier Applier, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop until ctx is canceled, shutdown is signaled,
// or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	votes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case v, ok := <-votes:
			if !ok {
				return
			}
			if err := w.processVote(ctx, v); err != nil {
				w.logger.Error(ctx, "error processing vote", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processVote applies a single queued vote. The vote was already accepted
// upstream, so transient ErrBusy failures are retried until the engine
// takes writes again; a vote given up on for any other reason has its ID
// unrecorded so the client may resubmit it.
func (w *Worker) processVote(ctx context.Context, v Vote) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	for {
		outcome, err := w.applier.ApplyVote(ctx, v)
		if err == nil {
			metrics.RecordRatingUpdate()
			w.logger.Debug(ctx, "vote applied",
				logger.String("voteID", v.VoteID),
				logger.Int("winnerChange", outcome.WinnerChange),
				logger.Int("loserChange", outcome.LoserChange),
			)
			return nil
		}

		if errors.Is(err, model.ErrSelfComparison) || errors.Is(err, model.ErrInvalidHero) {
			// Queued bulk imports may carry junk rows; count and move on,
			// releasing the ID so a corrected resubmission can land.
			metrics.RecordVoteInvalid()
			w.applier.Unrecord(ctx, v.VoteID)
			w.logger.Warn(ctx, "skipping invalid vote",
				logger.String("voteID", v.VoteID),
				logger.Error(err),
			)
			return nil
		}

		if errors.Is(err, ErrBusy) {
			select {
			case <-time.After(busyRetryInterval):
				continue
			case <-ctx.Done():
			case <-w.shutdown:
			}
			w.applier.Unrecord(ctx, v.VoteID)
			return fmt.Errorf("abandoning vote %s on shutdown: %w", v.VoteID, err)
		}

		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		w.applier.Unrecord(ctx, v.VoteID)
		w.logger.Error(ctx, "vote application failed",
			logger.String("voteID", v.VoteID),
			logger.Error(err),
		)
		return fmt.Errorf("apply vote %s: %w", v.VoteID, err)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:  make([]*Worker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(queue, applier, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	select {
	case <-p.shutdown:
		return
	default:
		close(p.shutdown)
	}

	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue first so in-flight votes drain, then waits for
// every worker or the timeout.
func (p *Pool) Shutdown(ctx context.Context, q interface{ Close() error }) error {
	if q != nil {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
