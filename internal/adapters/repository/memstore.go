package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/metrics"
)

const defaultCapacity = 10000

// MemoryStore is a bounded, in-memory Store. Runs are kept in creation order;
// when full, the oldest finished run is evicted to make room. In-flight runs
// are never evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*list.Element
	order    *list.List // front is the oldest run
	capacity int
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a run store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		runs:     make(map[string]*list.Element),
		order:    list.New(),
		capacity: defaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateRunsStored(0)
	return s
}

// Create adds a pending run.
func (s *MemoryStore) Create(_ context.Context, run types.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("%w: %s", ErrDuplicateID, run.ID)
	}
	if len(s.runs) >= s.capacity && !s.evictOldestFinished() {
		metrics.RecordErrorByComponent("repository", "store_full")
		return ErrStoreFull
	}

	run.Status = types.StatusPending
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	r := run
	s.runs[run.ID] = s.order.PushBack(&r)
	metrics.UpdateRunsStored(len(s.runs))
	return nil
}

// MarkRunning moves a pending run to running.
func (s *MemoryStore) MarkRunning(_ context.Context, id string) error {
	return s.update(id, func(r *types.Run) error {
		if r.Status != types.StatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, types.StatusRunning)
		}
		t := s.now()
		r.Status = types.StatusRunning
		r.StartedAt = &t
		return nil
	})
}

// Complete stores the result of a run and marks it done.
func (s *MemoryStore) Complete(_ context.Context, id string, res matching.Result) error {
	return s.update(id, func(r *types.Run) error {
		if r.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, types.StatusDone)
		}
		t := s.now()
		r.Status = types.StatusDone
		r.Result = &res
		r.FinishedAt = &t
		return nil
	})
}

// Fail marks a run failed.
func (s *MemoryStore) Fail(_ context.Context, id string, cause error) error {
	return s.update(id, func(r *types.Run) error {
		if r.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, types.StatusFailed)
		}
		t := s.now()
		r.Status = types.StatusFailed
		if cause != nil {
			r.Error = cause.Error()
		}
		r.FinishedAt = &t
		return nil
	})
}

// Remove deletes a run.
func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.runs[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.order.Remove(el)
	delete(s.runs, id)
	metrics.UpdateRunsStored(len(s.runs))
	return nil
}

// Get returns a snapshot of the run.
func (s *MemoryStore) Get(_ context.Context, id string) (types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.runs[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *el.Value.(*types.Run), nil
}

// Count returns the number of runs held.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func (s *MemoryStore) update(id string, fn func(*types.Run) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.runs[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fn(el.Value.(*types.Run))
}

// evictOldestFinished must be called with s.mu held.
func (s *MemoryStore) evictOldestFinished() bool {
	for el := s.order.Front(); el != nil; el = el.Next() {
		r := el.Value.(*types.Run)
		if !r.Status.Terminal() {
			continue
		}
		s.order.Remove(el)
		delete(s.runs, r.ID)
		metrics.RecordRunEvicted()
		return true
	}
	return false
}
