// Package types contains types shared between the service and its transports.
package types

import (
	"time"

	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/model"
)

// RunStatus is the lifecycle state of a matching run.
type RunStatus string

// Run lifecycle: pending -> running -> done | failed. A pending run may fail
// directly when it never reaches a worker.
const (
	StatusPending RunStatus = "pending"
	StatusRunning RunStatus = "running"
	StatusDone    RunStatus = "done"
	StatusFailed  RunStatus = "failed"
)

// Terminal reports whether the run has finished.
func (s RunStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Run is the externally visible state of a matching run.
type Run struct {
	ID           string           `json:"run_id"`
	RequestID    string           `json:"request_id,omitempty"`
	Status       RunStatus        `json:"status"`
	Profile      string           `json:"profile"` // as requested
	TeamSize     int              `json:"team_size"`
	Participants int              `json:"participants"`
	Result       *matching.Result `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}

// MatchRequest asks for one matching. Zero TeamSize means the service default;
// an empty Profile resolves to the default profile.
type MatchRequest struct {
	RequestID    string              `json:"request_id,omitempty"`
	TeamSize     int                 `json:"team_size,omitempty"`
	Profile      string              `json:"profile,omitempty"`
	Participants []model.Participant `json:"participants"`
}

// Submission acknowledges an accepted MatchRequest. Duplicate is set when the
// request id was already known and RunID points at the original run.
type Submission struct {
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	Duplicate bool      `json:"duplicate"`
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started         bool     `json:"started"`
	WorkerCount     int      `json:"worker_count"`
	QueueSize       int      `json:"queue_size"`
	QueueLength     int      `json:"queue_length"`
	DedupeSize      int      `json:"dedupe_size"`
	DedupeEntries   int64    `json:"dedupe_entries"`
	StoreCapacity   int      `json:"store_capacity"`
	RunsStored      int      `json:"runs_stored"`
	DefaultSize     int      `json:"default_team_size"`
	MaxParticipants int      `json:"max_participants"`
	SyncSlots       int      `json:"sync_slots"`
	Profiles        []string `json:"profiles"`
}
