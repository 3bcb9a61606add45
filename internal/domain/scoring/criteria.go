// Package scoring rates a group of participants on seven independent
// compatibility and diversity criteria and folds those ratings into a single
// weighted total using a named weight profile.
//
// Every calculator is a pure function over a member list returning a value on
// the 0–10 scale. Unstated attributes never count toward any bucket and an
// empty member list scores 0 on every criterion.
package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Criterion identifies one of the seven scoring dimensions.
type Criterion int

// Criteria in canonical order. The order is load-bearing: it breaks ties when
// picking top factors and fixes the layout of Breakdown and Weights.
const (
	Time Criterion = iota
	Skill
	Role
	Major
	Goal
	Continent
	Gender

	NumCriteria = int(Gender) + 1
)

// Criteria lists every criterion in canonical order.
var Criteria = [NumCriteria]Criterion{Time, Skill, Role, Major, Goal, Continent, Gender}

var criterionNames = [NumCriteria]string{"time", "skill", "role", "major", "goal", "continent", "gender"}

var criterionLabels = [NumCriteria]string{
	"Time compatibility",
	"Skill diversity",
	"Role diversity",
	"Major diversity",
	"Goal alignment",
	"Continent diversity",
	"Gender balance",
}

// String returns the machine name used in JSON and configuration.
func (c Criterion) String() string {
	if c < 0 || int(c) >= NumCriteria {
		return fmt.Sprintf("criterion(%d)", int(c))
	}
	return criterionNames[c]
}

// Label returns the human-readable name shown as a top-factor tag.
func (c Criterion) Label() string {
	if c < 0 || int(c) >= NumCriteria {
		return c.String()
	}
	return criterionLabels[c]
}

// ParseCriterion resolves a machine name such as "major".
func ParseCriterion(name string) (Criterion, error) {
	for i, n := range criterionNames {
		if n == name {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCriterion, name)
}

// Breakdown holds one 0–10 score per criterion, indexed by Criterion.
type Breakdown [NumCriteria]float64

// Of returns the score for c.
func (b Breakdown) Of(c Criterion) float64 { return b[c] }

// TopFactors returns the labels of the (at most) n highest-scoring criteria.
// Equal scores keep canonical criterion order, so the result is deterministic
// and capped at n even when more criteria tie.
func (b Breakdown) TopFactors(n int) []string {
	if n <= 0 {
		return nil
	}
	order := Criteria
	sort.SliceStable(order[:], func(i, j int) bool {
		return b[order[i]] > b[order[j]]
	})
	if n > NumCriteria {
		n = NumCriteria
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = order[i].Label()
	}
	return labels
}

// MarshalJSON encodes the breakdown as an object keyed by criterion name.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumCriteria)
	for _, c := range Criteria {
		m[c.String()] = b[c]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by criterion name. Unknown keys are
// rejected; missing keys decode as 0.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Breakdown
	for name, v := range m {
		c, err := ParseCriterion(name)
		if err != nil {
			return err
		}
		out[c] = v
	}
	*b = out
	return nil
}
