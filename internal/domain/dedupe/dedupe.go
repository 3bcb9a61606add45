// Package dedupe maps client request ids to the run they created so a
// retried submission returns the original run instead of starting another.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Default bound on remembered request ids.
const defaultMaxSize = 50000

// Deduper records request ids to give submissions at-most-once semantics.
type Deduper interface {
	// SeenAndRecord atomically checks whether key is known. When it is, the run
	// id recorded for it is returned with seen == true. Otherwise runID is
	// recorded under key and seen is false.
	SeenAndRecord(ctx context.Context, key, runID string) (existing string, seen bool)

	// Unrecord forgets key so the request can be retried, e.g. after the queue
	// rejected it.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key   string
	runID string
}

// inMemoryDeduper keeps at most maxSize keys and evicts the oldest first.
// maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is the most recently recorded
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, runID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		return el.Value.(*entry).runID, true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[key] = d.order.PushFront(&entry{key: key, runID: runID})
	d.size.Add(1)
	return runID, false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(*entry).key)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
