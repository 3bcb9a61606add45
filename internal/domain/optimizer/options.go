package optimizer

// Defaults for the local search.
const (
	DefaultMaxIterations = 1000
	DefaultEpsilon       = 0.001
)

// Option applies a configuration option to a single Optimize call.
type Option func(*config)

type config struct {
	maxIterations int
	epsilon       float64
	done          <-chan struct{}
}

func defaultConfig() config {
	return config{
		maxIterations: DefaultMaxIterations,
		epsilon:       DefaultEpsilon,
	}
}

// WithMaxIterations caps the number of improvement scans. Non-positive values
// keep the default.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithEpsilon sets the minimum gain a swap must exceed to be applied.
// Negative values keep the default.
func WithEpsilon(eps float64) Option {
	return func(c *config) {
		if eps >= 0 {
			c.epsilon = eps
		}
	}
}

// WithDone stops the search before the next scan once done is closed. The
// outcome is then valid but not converged.
func WithDone(done <-chan struct{}) Option {
	return func(c *config) { c.done = done }
}
