package rosterload

import "time"

// Defaults applied by Config.withDefaults.
const (
	DefaultRuns         = 20
	DefaultParticipants = 24
	DefaultTeamSize     = 4
	DefaultWorkers      = 4
	DefaultTimeout      = 10 * time.Second
	DefaultWait         = 2 * time.Minute
	DefaultPollInterval = 100 * time.Millisecond
	DefaultOmitRate     = 0.1
	DefaultRetries      = 5
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Runs         int           // Number of matching requests to submit
	Participants int           // Roster size per request
	TeamSize     int           // Requested team size
	Profile      string        // Weight profile name; empty uses the service default
	Workers      int           // Concurrent HTTP callers
	Timeout      time.Duration // HTTP request timeout
	Wait         time.Duration // How long to wait for all runs to finish
	PollInterval time.Duration // Delay between status polls
	Retries      int           // Resubmissions after a 429; negative disables
	OmitRate     float64       // Chance an optional attribute is left blank
	Seed         int64         // Roster generator seed; 0 seeds from the clock
	OutputFile   string        // Write generated rosters here when set
}

func (c Config) withDefaults() Config {
	if c.Runs <= 0 {
		c.Runs = DefaultRuns
	}
	if c.Participants <= 0 {
		c.Participants = DefaultParticipants
	}
	if c.TeamSize <= 0 {
		c.TeamSize = DefaultTeamSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Wait <= 0 {
		c.Wait = DefaultWait
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	switch {
	case c.Retries == 0:
		c.Retries = DefaultRetries
	case c.Retries < 0:
		c.Retries = 0
	}
	if c.OmitRate < 0 || c.OmitRate > 1 {
		c.OmitRate = DefaultOmitRate
	}
	return c
}

// Stats holds load run statistics.
type Stats struct {
	RostersGenerated     int           `json:"rosters_generated"`
	Submitted            int           `json:"submitted"`
	Accepted             int           `json:"accepted"`
	Duplicates           int           `json:"duplicates"`
	Backpressured        int           `json:"backpressured"`
	SubmitFailures       int           `json:"submit_failures"`
	Completed            int           `json:"completed"`
	RunFailures          int           `json:"run_failures"`
	TimedOut             int           `json:"timed_out"`
	VerificationFailures int           `json:"verification_failures"`
	Teams                int           `json:"teams"`
	Swaps                int           `json:"swaps"`
	FallbackProfiles     int           `json:"fallback_profiles"`
	MeanTeamTotal        float64       `json:"mean_team_total"`
	MeanSpread           float64       `json:"mean_spread"`
	StartTime            time.Time     `json:"start_time"`
	EndTime              time.Time     `json:"end_time"`
	Duration             time.Duration `json:"duration_ns"`
}
