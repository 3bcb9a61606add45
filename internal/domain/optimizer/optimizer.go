// Package optimizer improves a grouping by exchanging members between groups.
//
// Optimize runs steepest-ascent hill climbing over the full swap neighborhood:
// every iteration evaluates every exchange of one member of group A with one
// member of group B, for every unordered pair (A, B), and applies only the
// single exchange with the largest gain in the combined weighted total of A
// and B. The search stops when no exchange gains more than epsilon or when the
// iteration cap is reached.
//
// Contracts:
//   - the input groups are never mutated; candidates are scored on scratch
//     copies and the state is a private copy of the input,
//   - the sum of group totals never decreases across an applied swap,
//   - group sizes and the member multiset are preserved,
//   - scanning order is fixed (pair a<b, then member i of a, then member j of
//     b) and ties keep the first candidate, so the result is deterministic.
//
// The best exchange of every group pair is cached and only pairs touching the
// two groups changed by a swap are rescanned.
//
// Complexity: O(groups² × size²) candidate evaluations for the first scan,
// then O(groups × size²) per applied swap.
package optimizer

import (
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
)

// Group is one scored group of the optimizer state.
type Group struct {
	Members []model.Participant
	Scores  scoring.Breakdown
	Total   float64
}

// Swap records an applied exchange.
type Swap struct {
	GroupA, GroupB   int    // 0-based group indexes, GroupA < GroupB
	MemberA, MemberB string // participant ids moved out of A and B
	Gain             float64
	TotalAfter       float64 // sum of every group total after the swap
}

// Outcome is the result of one Optimize call.
type Outcome struct {
	Groups       []Group
	Iterations   int  // improvement scans performed
	Swaps        []Swap
	Converged    bool // true when stopped at a local optimum rather than the cap
	InitialTotal float64
	FinalTotal   float64
}

// candidate is the best exchange found for one pair of groups.
type candidate struct {
	ok     bool
	a, b   int
	i, j   int
	gain   float64
	scoreA scoring.Breakdown
	scoreB scoring.Breakdown
	totalA float64
	totalB float64
}

// search holds the optimizer state. pairs[a][b-a-1] caches the best exchange
// between groups a and b; it stays valid until either group changes.
type search struct {
	state    []Group
	profile  scoring.Profile
	scorer   scoring.Scorer
	scratchA []model.Participant
	scratchB []model.Participant
	pairs    [][]candidate
}

// Optimize improves groups under profile and returns the scored result.
// Fewer than two groups is a no-op apart from scoring.
func Optimize(groups [][]model.Participant, profile scoring.Profile, opts ...Option) Outcome {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &search{profile: profile, state: make([]Group, len(groups))}
	largest := 0
	for i, g := range groups {
		members := make([]model.Participant, len(g))
		copy(members, g)
		b := s.scorer.Evaluate(members)
		s.state[i] = Group{Members: members, Scores: b, Total: profile.Weighted(b)}
		largest = max(largest, len(g))
	}

	out := Outcome{Groups: s.state, InitialTotal: sumTotals(s.state)}
	if len(s.state) < 2 {
		out.Converged = true
		out.FinalTotal = out.InitialTotal
		return out
	}

	s.scratchA = make([]model.Participant, largest)
	s.scratchB = make([]model.Participant, largest)
	s.pairs = make([][]candidate, len(s.state))
	for a := range s.state {
		s.pairs[a] = make([]candidate, len(s.state)-a-1)
		for b := a + 1; b < len(s.state); b++ {
			s.pairs[a][b-a-1] = s.scanPair(a, b)
		}
	}
	total := out.InitialTotal

	for out.Iterations < cfg.maxIterations {
		if stopped(cfg.done) {
			break
		}
		out.Iterations++

		best := s.best()
		if !best.ok || best.gain <= cfg.epsilon {
			out.Converged = true
			break
		}

		movedA, movedB := s.apply(best)
		total = sumTotals(s.state)
		out.Swaps = append(out.Swaps, Swap{
			GroupA:     best.a,
			GroupB:     best.b,
			MemberA:    movedA.ID,
			MemberB:    movedB.ID,
			Gain:       best.gain,
			TotalAfter: total,
		})
	}

	out.FinalTotal = total
	return out
}

// best returns the cached exchange with the largest strictly positive gain.
// Pairs are visited in scan order and only a strictly larger gain replaces
// the current pick, so ties keep the first exchange of a full scan.
func (s *search) best() candidate {
	var best candidate
	for a := range s.pairs {
		for _, c := range s.pairs[a] {
			if c.ok && (!best.ok || c.gain > best.gain) {
				best = c
			}
		}
	}
	return best
}

// apply performs c and rescans every pair touching the two changed groups.
func (s *search) apply(c candidate) (movedA, movedB model.Participant) {
	ga, gb := &s.state[c.a], &s.state[c.b]
	movedA, movedB = ga.Members[c.i], gb.Members[c.j]
	ga.Members[c.i], gb.Members[c.j] = movedB, movedA
	ga.Scores, ga.Total = c.scoreA, c.totalA
	gb.Scores, gb.Total = c.scoreB, c.totalB

	for x := range s.state {
		for y := x + 1; y < len(s.state); y++ {
			if x == c.a || x == c.b || y == c.a || y == c.b {
				s.pairs[x][y-x-1] = s.scanPair(x, y)
			}
		}
	}
	return movedA, movedB
}

// scanPair returns the first exchange between groups a and b with the
// largest strictly positive gain.
func (s *search) scanPair(a, b int) candidate {
	var best candidate
	ga, gb := s.state[a], s.state[b]
	oldSum := ga.Total + gb.Total
	candA := s.scratchA[:len(ga.Members)]
	candB := s.scratchB[:len(gb.Members)]

	for i := range ga.Members {
		for j := range gb.Members {
			copy(candA, ga.Members)
			copy(candB, gb.Members)
			candA[i], candB[j] = gb.Members[j], ga.Members[i]

			scoreA := s.scorer.Evaluate(candA)
			scoreB := s.scorer.Evaluate(candB)
			totalA := s.profile.Weighted(scoreA)
			totalB := s.profile.Weighted(scoreB)

			gain := totalA + totalB - oldSum
			if gain > 0 && (!best.ok || gain > best.gain) {
				best = candidate{
					ok: true,
					a: a, b: b, i: i, j: j,
					gain:   gain,
					scoreA: scoreA, scoreB: scoreB,
					totalA: totalA, totalB: totalB,
				}
			}
		}
	}
	return best
}

func stopped(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func sumTotals(groups []Group) float64 {
	var s float64
	for _, g := range groups {
		s += g.Total
	}
	return s
}
