// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	workerpool "github.com/okian/huddle/internal/adapters/mq/worker"
	"github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/domain/dedupe"
	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/optimizer"
	"github.com/okian/huddle/internal/domain/planner"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const (
	stopTimeout        = 30 * time.Second
	defaultSyncTimeout = 20 * time.Second
)

// Service runs matchings for the HTTP API, either inline or through the
// queue and worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry  *scoring.Registry
	engine    *matching.Engine
	runs      *repository.MemoryStore
	deduper   dedupe.Deduper
	jobs      *queue.InMemoryQueue
	pool      *workerpool.Pool
	syncSlots *semaphore.Weighted

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	storeCapacity   int
	defaultTeamSize int
	maxParticipants int
	syncConcurrency int
	syncTimeout     time.Duration
	maxIterations   int
	seed            int64
	profiles        map[string]map[string]float64

	// State
	started bool
	cancel  context.CancelFunc // stops the workers' context

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      50_000,
		storeCapacity:   10_000,
		defaultTeamSize: 4,
		maxParticipants: matching.MaxParticipants,
		syncTimeout:     defaultSyncTimeout,
		maxIterations:   optimizer.DefaultMaxIterations,
		logger:          nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the profile registry and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matching service...")

	registry, err := scoring.NewRegistry(scoring.WithProfiles(s.profiles))
	if err != nil {
		return fmt.Errorf("build profile registry: %w", err)
	}
	s.registry = registry
	s.engine = matching.New(
		matching.WithRegistry(registry),
		matching.WithLogger(s.logger.Named("matching")),
		matching.WithSeed(s.seed),
		matching.WithMaxIterations(s.maxIterations),
	)
	s.runs = repository.NewMemoryStore(repository.WithCapacity(s.storeCapacity))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	s.pool = workerpool.NewPool(s.workerCount, s.jobs, s.engine, s.runs, workerpool.WithLogger(s.logger))

	if s.syncConcurrency < 1 {
		s.syncConcurrency = s.pool.Size()
	}
	s.syncSlots = semaphore.NewWeighted(int64(s.syncConcurrency))

	// Workers outlive ctx so Stop can drain the queue after a shutdown signal.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("storeCapacity", s.storeCapacity),
		logger.Int("syncSlots", s.syncConcurrency),
		logger.Any("profiles", registry.Names()),
	)

	return nil
}

// Stop closes the queue and waits for the workers to drain it, then cancels
// the context the workers run under. Runs still in flight when the drain
// times out are cancelled by that step.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping matching service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

// Submit validates req and queues it. A request id seen before returns the
// run it created the first time with Duplicate set.
func (s *Service) Submit(ctx context.Context, req types.MatchRequest) (types.Submission, error) { //nolint:gocritic // hugeParam: request is normalized on a copy
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Submission{}, ErrNotStarted
	}
	if err := s.normalize(&req); err != nil {
		return types.Submission{}, err
	}

	runID := uuid.NewString()
	if req.RequestID != "" {
		if existing, seen := s.deduper.SeenAndRecord(ctx, req.RequestID, runID); seen {
			metrics.RecordRequestDuplicate()
			sub := types.Submission{RunID: existing, Status: types.StatusPending, Duplicate: true}
			// The original may still be between dedupe and store.
			if run, err := s.runs.Get(ctx, existing); err == nil {
				sub.Status = run.Status
			}
			s.logger.Debug(ctx, "duplicate matching request",
				logger.String("request_id", req.RequestID),
				logger.String("run_id", existing),
			)
			return sub, nil
		}
	}

	run := types.Run{
		ID:           runID,
		RequestID:    req.RequestID,
		Profile:      req.Profile,
		TeamSize:     req.TeamSize,
		Participants: len(req.Participants),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.forget(ctx, req.RequestID)
		if errors.Is(err, repository.ErrStoreFull) {
			metrics.RecordMatchingRun(req.Profile, metrics.OutcomeRejected)
			return types.Submission{}, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return types.Submission{}, fmt.Errorf("create run: %w", err)
	}

	job := model.Job{
		RunID:        runID,
		Participants: req.Participants,
		TeamSize:     req.TeamSize,
		Profile:      req.Profile,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.forget(ctx, req.RequestID)
		// Nobody learns the id of a rejected run, so it must not hold a slot.
		if rerr := s.runs.Remove(ctx, runID); rerr != nil {
			s.logger.Error(ctx, "failed to remove rejected run", logger.String("run_id", runID), logger.Error(rerr))
		}
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			metrics.RecordMatchingRun(req.Profile, metrics.OutcomeRejected)
			return types.Submission{}, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return types.Submission{}, fmt.Errorf("enqueue run: %w", err)
	}
	metrics.UpdateQueueSize(s.jobs.Len(ctx))

	s.logger.Debug(ctx, "matching queued",
		logger.String("run_id", runID),
		logger.Int("participants", len(req.Participants)),
		logger.Int("team_size", req.TeamSize),
		logger.String("profile", req.Profile),
	)
	return types.Submission{RunID: runID, Status: types.StatusPending}, nil
}

// Match runs req inline and returns the result. At most the configured
// number of synchronous runs proceed at once; others get ErrBusy. A run is
// abandoned when ctx is done or the sync timeout passes.
func (s *Service) Match(ctx context.Context, req types.MatchRequest) (matching.Result, error) { //nolint:gocritic // hugeParam: request is normalized on a copy
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return matching.Result{}, ErrNotStarted
	}
	if err := s.normalize(&req); err != nil {
		return matching.Result{}, err
	}

	if !s.syncSlots.TryAcquire(1) {
		metrics.RecordMatchingRun(req.Profile, metrics.OutcomeRejected)
		return matching.Result{}, fmt.Errorf("%w: synchronous matching slots exhausted", ErrBusy)
	}
	defer s.syncSlots.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.engine.Run(ctx, req.Participants, req.TeamSize, req.Profile)
	workerpool.RecordRun(model.Job{
		Participants: req.Participants,
		TeamSize:     req.TeamSize,
		Profile:      req.Profile,
	}, res, err, time.Since(start))
	if err != nil {
		return matching.Result{}, err
	}
	return res, nil
}

// Get returns the run with the given id.
func (s *Service) Get(ctx context.Context, id string) (types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Run{}, ErrNotStarted
	}
	return s.runs.Get(ctx, id)
}

// Profiles lists the registered weight profiles.
func (s *Service) Profiles() []scoring.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.registry == nil {
		return scoring.DefaultRegistry().Profiles()
	}
	return s.registry.Profiles()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:         s.started,
		WorkerCount:     s.workerCount,
		QueueSize:       s.queueSize,
		DedupeSize:      s.dedupeSize,
		StoreCapacity:   s.storeCapacity,
		DefaultSize:     s.defaultTeamSize,
		MaxParticipants: s.maxParticipants,
		SyncSlots:       s.syncConcurrency,
	}

	if s.started {
		ctx := context.Background()
		stats.WorkerCount = s.pool.Size()
		stats.QueueLength = s.jobs.Len(ctx)
		stats.DedupeEntries = s.deduper.Size()
		stats.RunsStored = s.runs.Count(ctx)
		stats.Profiles = s.registry.Names()

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateRunsStored(stats.RunsStored)
		metrics.UpdateWorkerCount(stats.WorkerCount)
	}

	return stats
}

// normalize fills defaults and rejects requests the engine would refuse or
// that break roster uniqueness.
func (s *Service) normalize(req *types.MatchRequest) error {
	if req.TeamSize == 0 {
		req.TeamSize = s.defaultTeamSize
	}
	if req.Profile == "" {
		req.Profile = scoring.DefaultProfile
	}

	n := len(req.Participants)
	if _, err := planner.Plan(n, req.TeamSize); err != nil {
		return err
	}
	if n > s.maxParticipants {
		return fmt.Errorf("%w: %d participants exceeds limit %d", ErrInvalidRequest, n, s.maxParticipants)
	}

	ids := make(map[string]struct{}, n)
	numbers := make(map[int]struct{}, n)
	for i, p := range req.Participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant %d has no id", ErrInvalidRequest, i)
		}
		if _, dup := ids[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant id %q", ErrInvalidRequest, p.ID)
		}
		ids[p.ID] = struct{}{}
		if _, dup := numbers[p.Number]; dup {
			return fmt.Errorf("%w: duplicate participant number %d", ErrInvalidRequest, p.Number)
		}
		numbers[p.Number] = struct{}{}
	}
	return nil
}

// forget releases a request id so the client can retry it.
func (s *Service) forget(ctx context.Context, requestID string) {
	if requestID != "" {
		s.deduper.Unrecord(ctx, requestID)
	}
}
