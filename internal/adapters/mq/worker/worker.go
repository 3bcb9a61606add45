// Package worker runs queued matching jobs against the engine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Matcher runs one matching.
type Matcher interface {
	Run(ctx context.Context, participants []model.Participant, teamSize int, profile string) (matching.Result, error)
}

// Recorder tracks run state transitions.
type Recorder interface {
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, res matching.Result) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is drained after closing.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	matcher  Matcher
	recorder Recorder
	name     string
	active   *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, matcher Matcher, recorder Recorder, opts ...Option) *InMemoryWorker {
	s := newSettings("worker", opts)
	return &InMemoryWorker{
		queue:    q,
		matcher:  matcher,
		recorder: recorder,
		name:     s.name,
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   s.logger.Named(s.name),
	}
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("run_id", job.RunID), logger.Error(err))
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one matching and records its outcome.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.recorder.MarkRunning(ctx, job.RunID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark run %s running: %w", job.RunID, err)
	}

	res, err := w.matcher.Run(ctx, job.Participants, job.TeamSize, job.Profile)
	RecordRun(job, res, err, time.Since(start))
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "engine_error")
		w.logger.Warn(ctx, "matching failed",
			logger.String("run_id", job.RunID),
			logger.Int("participants", len(job.Participants)),
			logger.Error(err),
		)
		if ferr := w.recorder.Fail(ctx, job.RunID, err); ferr != nil {
			return errors.Join(err, ferr)
		}
		return nil
	}

	if err := w.recorder.Complete(ctx, job.RunID, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("complete run %s: %w", job.RunID, err)
	}

	w.logger.Debug(ctx, "matching completed",
		logger.String("run_id", job.RunID),
		logger.Int("teams", len(res.Teams)),
		logger.String("profile", res.Profile),
		logger.Int("swaps", res.Swaps),
	)
	return nil
}

// RecordRun publishes the metrics of one engine run. It is shared by the
// worker and the synchronous path.
func RecordRun(job Job, res matching.Result, err error, elapsed time.Duration) { //nolint:gocritic // hugeParam: read-only
	metrics.RecordParticipants(len(job.Participants))
	metrics.RecordMatchingDuration(float64(elapsed.Microseconds()) / 1000)
	if err != nil {
		metrics.RecordMatchingRun(job.Profile, metrics.OutcomeFailed)
		return
	}
	metrics.RecordMatchingRun(res.Profile, metrics.OutcomeDone)
	metrics.RecordOptimizer(res.Iterations, res.Swaps)
	metrics.RecordTeamSpread(res.Summary.StdDev)
	if !res.ProfileFound {
		metrics.RecordProfileFallback()
	}
	for _, t := range res.Teams {
		metrics.RecordTeamTotal(res.Profile, t.Total)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive workerCount uses the
// number of CPUs. Options apply to every worker; names get an index suffix.
func NewPool(workerCount int, q Queue, matcher Matcher, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	s := newSettings("worker", opts)
	active := new(atomic.Int64)

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  s.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, matcher, recorder,
			WithLogger(s.logger),
			WithName(s.name+"-"+strconv.Itoa(i)),
		)
		w.active = active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what is queued and waits for
// them. Workers still busy when ctx expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			w.shutdownOnce.Do(func() { close(w.shutdown) })
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
