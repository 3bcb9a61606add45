// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig; loading failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of matching workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many request ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreCapacity bounds how many runs are kept for retrieval.
	StoreCapacity int `koanf:"store_capacity"`

	// DefaultTeamSize is used when a request omits team_size.
	DefaultTeamSize int `koanf:"default_team_size"`

	// MaxParticipants caps the roster size of one request. It may not exceed
	// matching.MaxParticipants.
	MaxParticipants int `koanf:"max_participants"`

	// SyncConcurrency bounds concurrent POST /matchings/sync runs; 0 uses
	// WorkerCount.
	SyncConcurrency int `koanf:"sync_concurrency"`

	// SyncTimeout bounds one POST /matchings/sync run, e.g. "20s".
	SyncTimeout time.Duration `koanf:"sync_timeout"`

	// MaxIterations caps optimizer scans per run.
	MaxIterations int `koanf:"max_iterations"`

	// ShuffleSeed fixes the initial shuffle; 0 seeds from the clock per run.
	ShuffleSeed int64 `koanf:"shuffle_seed"`

	// Profiles registers extra weight profiles: name -> criterion -> weight.
	Profiles map[string]map[string]float64 `koanf:"profiles"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus series.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are constant labels added to every series.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsLatencyBuckets overrides the HTTP and queue latency buckets (ms).
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        1024,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       50_000,
		StoreCapacity:    10_000,
		DefaultTeamSize:  4,
		MaxParticipants:  matching.MaxParticipants,
		SyncTimeout:      20 * time.Second,
		MaxIterations:    1000,
		MetricsNamespace: "huddle",
		MetricsSubsystem: "matching",
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DefaultTeamSize < 2:
		return fmt.Errorf("%w: default_team_size must be at least 2, got %d", ErrInvalidConfig, c.DefaultTeamSize)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations must be at least 1, got %d", ErrInvalidConfig, c.MaxIterations)
	case c.MaxParticipants < 2:
		return fmt.Errorf("%w: max_participants must be at least 2, got %d", ErrInvalidConfig, c.MaxParticipants)
	case c.MaxParticipants > matching.MaxParticipants:
		return fmt.Errorf("%w: max_participants must be at most %d, got %d", ErrInvalidConfig, matching.MaxParticipants, c.MaxParticipants)
	case c.SyncConcurrency < 0:
		return fmt.Errorf("%w: sync_concurrency must not be negative, got %d", ErrInvalidConfig, c.SyncConcurrency)
	case c.SyncTimeout <= 0:
		return fmt.Errorf("%w: sync_timeout must be positive, got %s", ErrInvalidConfig, c.SyncTimeout)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	if _, err := scoring.NewRegistry(scoring.WithProfiles(c.Profiles)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
