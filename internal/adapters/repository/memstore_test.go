package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/types"
)

func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(fixedClock()))

	if err := store.Create(ctx, types.Run{ID: "run-1", Profile: "balanced", TeamSize: 4, Participants: 8}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	run, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run.Status != types.StatusPending {
		t.Errorf("expected pending, got %s", run.Status)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	if err := store.MarkRunning(ctx, "run-1"); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	run, _ = store.Get(ctx, "run-1")
	if run.Status != types.StatusRunning || run.StartedAt == nil {
		t.Errorf("expected running with start time, got %+v", run)
	}

	res := matching.Result{Profile: "balanced", ProfileFound: true, Swaps: 3}
	if err := store.Complete(ctx, "run-1", res); err != nil {
		t.Fatalf("complete: %v", err)
	}
	run, _ = store.Get(ctx, "run-1")
	if run.Status != types.StatusDone {
		t.Errorf("expected done, got %s", run.Status)
	}
	if run.Result == nil || run.Result.Swaps != 3 {
		t.Errorf("expected stored result, got %+v", run.Result)
	}
	if run.FinishedAt == nil || !run.FinishedAt.After(*run.StartedAt) {
		t.Errorf("expected finish after start, got %+v", run)
	}
}

func TestMemoryStore_Fail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Create(ctx, types.Run{ID: "run-1"})
	if err := store.Fail(ctx, "run-1", errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	run, _ := store.Get(ctx, "run-1")
	if run.Status != types.StatusFailed || run.Error != "boom" {
		t.Errorf("expected failed with error, got %+v", run)
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.MarkRunning(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_ = store.Create(ctx, types.Run{ID: "run-1"})
	if err := store.Create(ctx, types.Run{ID: "run-1"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}

	_ = store.Complete(ctx, "run-1", matching.Result{})
	if err := store.MarkRunning(ctx, "run-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := store.Fail(ctx, "run-1", errors.New("late")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := store.Complete(ctx, "run-1", matching.Result{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(2))

	_ = store.Create(ctx, types.Run{ID: "run-1"})
	_ = store.Create(ctx, types.Run{ID: "run-2"})

	// A pending run can be removed and frees its slot at once.
	if err := store.Remove(ctx, "run-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected run-1 gone, got %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
	if err := store.Create(ctx, types.Run{ID: "run-3"}); err != nil {
		t.Fatalf("expected room after remove, got %v", err)
	}
	if err := store.Remove(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}

	// The eviction order survives removal.
	_ = store.Complete(ctx, "run-2", matching.Result{})
	if err := store.Create(ctx, types.Run{ID: "run-4"}); err != nil {
		t.Fatalf("expected eviction of run-2, got %v", err)
	}
	if _, err := store.Get(ctx, "run-3"); err != nil {
		t.Errorf("in-flight run-3 must survive eviction: %v", err)
	}
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(2))

	_ = store.Create(ctx, types.Run{ID: "run-1"})
	_ = store.Create(ctx, types.Run{ID: "run-2"})

	// Both in flight: nothing can be evicted.
	if err := store.Create(ctx, types.Run{ID: "run-3"}); !errors.Is(err, ErrStoreFull) {
		t.Fatalf("expected ErrStoreFull, got %v", err)
	}

	_ = store.Complete(ctx, "run-2", matching.Result{})
	if err := store.Create(ctx, types.Run{ID: "run-3"}); err != nil {
		t.Fatalf("expected eviction of finished run, got %v", err)
	}
	if _, err := store.Get(ctx, "run-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected run-2 evicted, got %v", err)
	}
	if _, err := store.Get(ctx, "run-1"); err != nil {
		t.Errorf("in-flight run-1 must survive eviction: %v", err)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("run-%d-%d", g, i)
				if err := store.Create(ctx, types.Run{ID: id}); err != nil {
					t.Errorf("create %s: %v", id, err)
					return
				}
				_ = store.MarkRunning(ctx, id)
				_ = store.Complete(ctx, id, matching.Result{})
				if _, err := store.Get(ctx, id); err != nil {
					t.Errorf("get %s: %v", id, err)
				}
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 500 {
		t.Errorf("expected 500 runs, got %d", count)
	}
}
