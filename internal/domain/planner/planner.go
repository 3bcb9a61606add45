// Package planner sizes the slots a roster is split into.
//
// Plan guarantees, for any valid input:
//   - capacities sum to the participant count,
//   - every capacity is at least MinGroupSize (no orphans),
//   - max(capacity) - min(capacity) <= 1,
//   - capacities are non-increasing, so larger groups come first.
package planner

import "fmt"

// MinGroupSize is the smallest group the planner will produce.
const MinGroupSize = 2

// Plan returns the capacity of each group for n participants and a desired
// group size of target. Group k (0-based) is the group with sequence number
// k+1.
func Plan(n, target int) ([]int, error) {
	if n < MinGroupSize {
		return nil, fmt.Errorf("%w: have %d, need at least %d", ErrInsufficientParticipants, n, MinGroupSize)
	}
	if target < MinGroupSize {
		return nil, fmt.Errorf("%w: %d, must be at least %d", ErrInvalidTargetSize, target, MinGroupSize)
	}

	k := (n + target - 1) / target
	base, remainder := split(n, k)
	for base < MinGroupSize && k > 1 {
		k--
		base, remainder = split(n, k)
	}

	caps := make([]int, k)
	for i := range caps {
		caps[i] = base
		if i < remainder {
			caps[i]++
		}
	}
	return caps, nil
}

// GroupCount returns how many groups Plan would produce.
func GroupCount(n, target int) (int, error) {
	caps, err := Plan(n, target)
	if err != nil {
		return 0, err
	}
	return len(caps), nil
}

func split(n, k int) (base, remainder int) {
	base = n / k
	return base, n - base*k
}
