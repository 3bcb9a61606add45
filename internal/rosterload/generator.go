package rosterload

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/huddle/internal/domain/model"
)

const maxSlotsPerParticipant = 3

// Generator produces random rosters drawn from the canonical vocabulary.
type Generator struct {
	rng      *rand.Rand
	omitRate float64
}

// NewGenerator creates a generator. A zero seed draws one from the clock.
func NewGenerator(seed int64, omitRate float64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)), //nolint:gosec // load data, not security sensitive
		omitRate: omitRate,
	}
}

// Roster returns n participants with unique uuid ids and numbers 1..n.
func (g *Generator) Roster(n int) []model.Participant {
	out := make([]model.Participant, n)
	for i := range out {
		out[i] = model.Participant{
			ID:        uuid.NewString(),
			Number:    i + 1,
			TimeSlots: g.slots(),
			Skill:     g.pick(model.Skills),
			Role:      g.maybe(model.Roles),
			Major:     g.pick(model.Majors),
			Goal:      g.maybe(model.Goals),
			Continent: g.pick(model.Continents),
			Gender:    g.maybe(model.Genders),
		}
	}
	return out
}

// Rosters returns count rosters of n participants each.
func (g *Generator) Rosters(count, n int) [][]model.Participant {
	out := make([][]model.Participant, count)
	for i := range out {
		out[i] = g.Roster(n)
	}
	return out
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// maybe leaves an optional attribute blank at the configured rate.
func (g *Generator) maybe(values []string) string {
	if g.rng.Float64() < g.omitRate {
		return ""
	}
	return g.pick(values)
}

func (g *Generator) slots() []string {
	n := 1 + g.rng.Intn(maxSlotsPerParticipant)
	perm := g.rng.Perm(len(model.TimeSlots))
	out := make([]string, n)
	for i := range out {
		out[i] = model.TimeSlots[perm[i]]
	}
	return out
}
