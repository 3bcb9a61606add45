package rosterload

import (
	"fmt"

	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/planner"
)

// Verify checks a finished result against the roster it was built from:
// every participant lands in exactly one team, team count matches the plan,
// and sizes are at least two and differ by at most one.
func Verify(roster []model.Participant, teamSize int, res *matching.Result) error {
	if res == nil {
		return fmt.Errorf("%w: missing result", ErrVerification)
	}

	want, err := planner.GroupCount(len(roster), teamSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if len(res.Teams) != want {
		return fmt.Errorf("%w: %d teams, planned %d", ErrVerification, len(res.Teams), want)
	}

	pending := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		pending[p.ID] = struct{}{}
	}

	smallest, largest := len(roster), 0
	for _, team := range res.Teams {
		size := len(team.Members)
		smallest = min(smallest, size)
		largest = max(largest, size)
		for _, m := range team.Members {
			if _, ok := pending[m.ID]; !ok {
				return fmt.Errorf("%w: participant %s unknown or placed twice", ErrVerification, m.ID)
			}
			delete(pending, m.ID)
		}
	}

	if len(pending) > 0 {
		return fmt.Errorf("%w: %d participants unplaced", ErrVerification, len(pending))
	}
	if smallest < planner.MinGroupSize {
		return fmt.Errorf("%w: team of %d", ErrVerification, smallest)
	}
	if largest-smallest > 1 {
		return fmt.Errorf("%w: team sizes range %d..%d", ErrVerification, smallest, largest)
	}
	return nil
}
