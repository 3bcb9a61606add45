package matching

import (
	"github.com/okian/huddle/internal/domain/optimizer"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRegistry sets the weight profile registry. Nil keeps the built-ins.
func WithRegistry(r *scoring.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSeed fixes the shuffle seed so every Run is reproducible. Zero derives a
// fresh seed from the clock on each Run.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithMaxIterations caps optimizer scans per Run.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithEpsilon sets the minimum gain the optimizer accepts.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps >= 0 {
			e.epsilon = eps
		}
	}
}

func defaultEngine() *Engine {
	return &Engine{
		registry:      scoring.DefaultRegistry(),
		log:           logger.Nop(),
		maxIterations: optimizer.DefaultMaxIterations,
		epsilon:       optimizer.DefaultEpsilon,
	}
}
