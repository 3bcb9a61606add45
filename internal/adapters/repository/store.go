// Package repository holds matching runs between submission and retrieval.
package repository

import (
	"context"

	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/types"
)

// Store provides read/write access to matching runs.
type Store interface {
	// Create adds a pending run. Returns ErrDuplicateID when the id is taken
	// and ErrStoreFull when every stored run is still in flight.
	Create(ctx context.Context, run types.Run) error

	// MarkRunning moves a pending run to running.
	MarkRunning(ctx context.Context, id string) error

	// Complete stores the result of a run and marks it done.
	Complete(ctx context.Context, id string, res matching.Result) error

	// Fail marks a run failed with the given cause.
	Fail(ctx context.Context, id string, cause error) error

	// Remove deletes a run that was never handed out, whatever its status.
	// Returns ErrNotFound if unknown.
	Remove(ctx context.Context, id string) error

	// Get returns a snapshot of the run. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (types.Run, error)

	// Count returns the number of runs held.
	Count(ctx context.Context) int
}
