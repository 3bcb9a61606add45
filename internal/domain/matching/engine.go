// Package matching partitions a roster into balanced teams.
//
// Run sizes the teams with the planner, fills them from a shuffled copy of the
// roster, improves the grouping with the local-swap optimizer under the
// requested weight profile and reports per-team scores plus a summary.
// An Engine is immutable after construction and safe for concurrent use.
package matching

import (
	"context"
	"math/rand"
	"time"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/optimizer"
	"github.com/okian/huddle/internal/domain/planner"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/pkg/logger"
)

// MaxParticipants is the largest roster a single Run is sized for. Larger
// rosters still match, but the swap search grows with the cube of the roster
// and stops fitting an interactive request.
const MaxParticipants = 300

// Engine runs matchings.
type Engine struct {
	registry      *scoring.Registry
	log           logger.Logger
	seed          int64
	maxIterations int
	epsilon       float64
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := defaultEngine()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the profile registry the engine resolves names against.
func (e *Engine) Registry() *scoring.Registry { return e.registry }

// Run partitions participants into teams of roughly targetSize, optimized
// under the named weight profile. The participants slice is never modified.
// Cancelling ctx abandons the search and returns the context error.
func (e *Engine) Run(ctx context.Context, participants []model.Participant, targetSize int, profileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	caps, err := planner.Plan(len(participants), targetSize)
	if err != nil {
		return Result{}, err
	}

	profile, found := e.registry.Lookup(profileName)
	if !found {
		e.log.Warn(ctx, "unknown weight profile, using default",
			logger.String("requested", profileName),
			logger.String("profile", profile.Name),
		)
	}

	pool := make([]model.Participant, len(participants))
	for i, p := range participants {
		pool[i] = p.Clone()
	}
	rng := e.rng()
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	groups := make([][]model.Participant, len(caps))
	next := 0
	for i, c := range caps {
		groups[i] = pool[next : next+c : next+c]
		next += c
	}

	out := optimizer.Optimize(groups, profile,
		optimizer.WithMaxIterations(e.maxIterations),
		optimizer.WithEpsilon(e.epsilon),
		optimizer.WithDone(ctx.Done()),
	)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		Teams:        make([]Team, len(out.Groups)),
		Profile:      profile.Name,
		ProfileFound: found,
		Iterations:   out.Iterations,
		Swaps:        len(out.Swaps),
		Converged:    out.Converged,
	}
	totals := make([]float64, len(out.Groups))
	for i, g := range out.Groups {
		res.Teams[i] = Team{
			Number:     i + 1,
			Members:    g.Members,
			Scores:     g.Scores,
			Total:      g.Total,
			TopFactors: g.Scores.TopFactors(TopFactorCount),
		}
		totals[i] = g.Total
	}
	res.Summary = Summarize(totals)

	e.log.Debug(ctx, "matching finished",
		logger.Int("participants", len(participants)),
		logger.Int("teams", len(res.Teams)),
		logger.String("profile", res.Profile),
		logger.Int("iterations", res.Iterations),
		logger.Int("swaps", res.Swaps),
		logger.Float64("mean", res.Summary.Mean),
	)
	return res, nil
}

// rng returns the per-run source. A fixed seed reproduces the same shuffle on
// every call; zero draws a new seed from the clock.
func (e *Engine) rng() *rand.Rand {
	seed := e.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
