// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	votequeue "github.com/herolab/herorank/internal/adapters/mq/queue"
	workerpool "github.com/herolab/herorank/internal/adapters/mq/worker"
	"github.com/herolab/herorank/internal/adapters/repository"
	"github.com/herolab/herorank/internal/domain/confidence"
	"github.com/herolab/herorank/internal/domain/dedupe"
	"github.com/herolab/herorank/internal/domain/elo"
	"github.com/herolab/herorank/pkg/logger"
	"github.com/herolab/herorank/pkg/metrics"
)

// Service owns the rating engine state and orchestrates every read and
// write around it: the synchronous voting path, the bulk ingestion
// pipeline, batch recompute, and the consistency scan.
type Service struct {
	mu sync.RWMutex

	// writeMu serializes every rating mutation. Human vote rates make a
	// single serialization point cheap, and it is what makes the paired
	// read-modify-write safe regardless of how many workers run.
	writeMu sync.Mutex

	// recomputing rejects live votes while a replay owns the store.
	recomputing atomic.Bool

	// Core components
	store     repository.Store
	votes     repository.VoteLog
	deduper   dedupe.Deduper
	voteQueue votequeue.Queue
	pool      *workerpool.Pool

	// Domain calculators
	calc *elo.Calculator
	est  *confidence.Estimator

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of vote worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the bulk ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the vote-ID deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCalculator sets the Elo calculator, carrying all rating parameters.
func WithCalculator(calc *elo.Calculator) Option {
	return func(s *Service) {
		if calc != nil {
			s.calc = calc
		}
	}
}

// WithEstimator sets the Wilson confidence estimator.
func WithEstimator(est *confidence.Estimator) Option {
	return func(s *Service) {
		if est != nil {
			s.est = est
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.calc == nil {
		s.calc = elo.New()
	}
	if s.est == nil {
		s.est = confidence.New()
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	s.store = repository.NewTreapStore(ctx)
	s.votes = repository.NewInMemoryVoteLog()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.voteQueue = votequeue.NewInMemoryQueue(
		votequeue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.voteQueue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	if s.pool != nil {
		s.pool.Stop()
	}
	if s.voteQueue != nil {
		_ = s.voteQueue.Close()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// SeenAndRecord atomically checks if a vote id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordVoteDuplicate()
	}
	return seen
}

// Unrecord removes a vote ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a vote for asynchronous processing by the worker pool.
// Returns false on backpressure; the caller should unrecord the vote ID.
func (s *Service) Enqueue(ctx context.Context, v votequeue.Vote) bool {
	ok := s.voteQueue.Enqueue(ctx, v)
	if ok {
		metrics.UpdateQueueSize(s.voteQueue.Len(ctx))
	}
	return ok
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"recomputing": s.recomputing.Load(),
	}

	if s.started {
		queueLen := s.voteQueue.Len(ctx)
		totalHeroes := s.store.Count(ctx)
		loggedVotes := s.votes.Len(ctx)

		stats["queueLength"] = queueLen
		stats["totalHeroes"] = totalHeroes
		stats["loggedVotes"] = loggedVotes

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalHeroes(totalHeroes)
		metrics.UpdateWorkerCount(s.workerCount)
		metrics.UpdateVoteLogSize(loggedVotes)
	}
	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
