package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultProfile is the profile every unknown or empty name resolves to.
const DefaultProfile = "balanced"

// Weights holds one non-negative weight per criterion, indexed by Criterion.
type Weights [NumCriteria]float64

// Apply folds a breakdown into a weighted total: Σ score × weight.
func (w Weights) Apply(b Breakdown) float64 {
	var total float64
	for i := range w {
		total += b[i] * w[i]
	}
	return total
}

// MarshalJSON encodes the weights as an object keyed by criterion name.
func (w Weights) MarshalJSON() ([]byte, error) {
	return json.Marshal(Breakdown(w))
}

// Profile is a named, immutable weight table.
type Profile struct {
	Name    string  `json:"name"`
	Weights Weights `json:"weights"`
}

// Weighted returns the weighted total of b under this profile.
func (p Profile) Weighted(b Breakdown) float64 {
	return p.Weights.Apply(b)
}

// builtinProfiles returns a fresh copy of the shipped profiles. Column order:
// time, skill, role, major, goal, continent, gender.
func builtinProfiles() map[string]Weights {
	return map[string]Weights{
		DefaultProfile:      {1, 1, 1, 1, 1, 1, 1},
		"skill_focused":     {1, 2.5, 1.5, 1, 1, 0.5, 0.5},
		"diversity_focused": {1, 1, 1.5, 2, 0.5, 2, 2},
		"time_focused":      {3, 1, 1, 0.5, 1.5, 0.5, 0.5},
		"goal_focused":      {1.5, 1, 1, 0.5, 3, 0.5, 0.5},
	}
}

// RegistryOption customizes a Registry under construction.
type RegistryOption func(*registryBuilder)

type registryBuilder struct {
	custom map[string]map[string]float64
}

// WithProfile registers an additional profile from criterion-name weights.
// Criteria left out of the map get weight 0. Registering a built-in name
// other than the default replaces it.
func WithProfile(name string, weights map[string]float64) RegistryOption {
	return func(b *registryBuilder) {
		if b.custom == nil {
			b.custom = make(map[string]map[string]float64)
		}
		b.custom[name] = weights
	}
}

// WithProfiles registers several profiles at once, e.g. straight from config.
func WithProfiles(profiles map[string]map[string]float64) RegistryOption {
	return func(b *registryBuilder) {
		for name, weights := range profiles {
			WithProfile(name, weights)(b)
		}
	}
}

// Registry is an immutable set of weight profiles. It is safe for concurrent
// use once built.
type Registry struct {
	profiles map[string]Profile
	names    []string
}

// NewRegistry builds a registry holding the built-in profiles plus any
// registered through options.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	b := &registryBuilder{}
	for _, opt := range opts {
		opt(b)
	}

	profiles := make(map[string]Profile)
	for name, w := range builtinProfiles() {
		profiles[name] = Profile{Name: name, Weights: w}
	}

	for name, raw := range b.custom {
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidProfile)
		}
		if name == DefaultProfile {
			return nil, fmt.Errorf("%w: %q cannot be overridden", ErrInvalidProfile, DefaultProfile)
		}
		w, err := parseWeights(raw)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		profiles[name] = Profile{Name: name, Weights: w}
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{profiles: profiles, names: names}, nil
}

// DefaultRegistry returns a registry holding only the built-in profiles.
func DefaultRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		// Built-ins are static; failure here is a programming error.
		panic(err)
	}
	return r
}

// Lookup resolves name. Unknown or empty names resolve to the default
// profile with found == false so callers can flag the fallback.
func (r *Registry) Lookup(name string) (Profile, bool) {
	if p, ok := r.profiles[name]; ok {
		return p, true
	}
	return r.profiles[DefaultProfile], false
}

// Names returns every registered profile name in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Profiles returns every registered profile sorted by name.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.profiles[name])
	}
	return out
}

func parseWeights(raw map[string]float64) (Weights, error) {
	var w Weights
	for name, v := range raw {
		c, err := ParseCriterion(name)
		if err != nil {
			return Weights{}, err
		}
		if v < 0 {
			return Weights{}, fmt.Errorf("%w: %s=%g", ErrNegativeWeight, name, v)
		}
		w[c] = v
	}
	return w, nil
}
