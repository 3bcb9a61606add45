package service

import (
	"time"

	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued matching jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreCapacity bounds the number of runs kept for retrieval.
func WithStoreCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.storeCapacity = capacity
		}
	}
}

// WithDefaultTeamSize sets the team size used when a request leaves it out.
func WithDefaultTeamSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.defaultTeamSize = size
		}
	}
}

// WithMaxParticipants caps the roster size of a single request.
func WithMaxParticipants(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParticipants = n
		}
	}
}

// WithSyncConcurrency bounds how many synchronous matchings run at once.
// Zero or less uses the worker count.
func WithSyncConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.syncConcurrency = n
		}
	}
}

// WithSyncTimeout bounds one synchronous matching.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncTimeout = d
		}
	}
}

// WithMaxIterations caps optimizer passes per run.
func WithMaxIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithShuffleSeed fixes the seed of the initial shuffle. Zero derives a fresh
// seed for every run.
func WithShuffleSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithProfiles registers extra weight profiles on top of the built-in ones.
func WithProfiles(profiles map[string]map[string]float64) Option {
	return func(s *Service) {
		s.profiles = profiles
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
