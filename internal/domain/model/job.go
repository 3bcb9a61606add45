package model

import "time"

// Job is one matching request waiting for a worker.
type Job struct {
	RunID        string
	Participants []Participant
	TeamSize     int
	Profile      string
	EnqueuedAt   time.Time
}
