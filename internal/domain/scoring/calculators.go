package scoring

import "github.com/okian/huddle/internal/domain/model"

// Score values used by the bucketed calculators.
const (
	scoreMax = 10

	timeAllShare      = 10
	timeMajorityShare = 6
	timeMinorityShare = 2

	goalAligned   = 10
	goalOneOff    = 7
	goalScattered = 3

	genderMixed  = 10
	genderSingle = 3
)

// Scorer evaluates groups while reusing its counting table between calls,
// so scoring a group allocates nothing once the table has grown. The zero
// value is ready to use. A Scorer is not safe for concurrent use.
type Scorer struct {
	counts map[string]int
}

// Evaluate runs every calculator over members.
func (s *Scorer) Evaluate(members []model.Participant) Breakdown {
	if len(members) == 0 {
		return Breakdown{}
	}
	return Breakdown{
		Time:      s.time(members),
		Skill:     skillBucket(s.distinct(members, skillOf)),
		Role:      roleBucket(s.distinct(members, roleOf)),
		Major:     spreadOfThree(s.distinct(members, majorOf)),
		Goal:      s.goal(members),
		Continent: spreadOfThree(s.distinct(members, continentOf)),
		Gender:    genderBucket(s.distinct(members, genderOf)),
	}
}

// Evaluate runs every calculator over members.
func Evaluate(members []model.Participant) Breakdown {
	var s Scorer
	return s.Evaluate(members)
}

// TimeCompatibility rewards a time slot shared by the whole group (10), by a
// strict majority (6), or neither (2).
func TimeCompatibility(members []model.Participant) float64 {
	if len(members) == 0 {
		return 0
	}
	var s Scorer
	return s.time(members)
}

// SkillDiversity rewards spread across skill tiers: 5+ tiers 10, 4 → 8,
// 3 → 6, otherwise 3.
func SkillDiversity(members []model.Participant) float64 {
	if len(members) == 0 {
		return 0
	}
	var s Scorer
	return skillBucket(s.distinct(members, skillOf))
}

// RoleDiversity scores min(10, 3d-2) for d distinct roles; no stated role
// scores 0.
func RoleDiversity(members []model.Participant) float64 {
	var s Scorer
	return roleBucket(s.distinct(members, roleOf))
}

// MajorDiversity scores 3+ distinct majors 10, two 6, otherwise 2.
func MajorDiversity(members []model.Participant) float64 {
	if len(members) == 0 {
		return 0
	}
	var s Scorer
	return spreadOfThree(s.distinct(members, majorOf))
}

// ContinentDiversity uses the same thresholds as MajorDiversity.
func ContinentDiversity(members []model.Participant) float64 {
	if len(members) == 0 {
		return 0
	}
	var s Scorer
	return spreadOfThree(s.distinct(members, continentOf))
}

// GoalAlignment rewards members sharing a goal. Among members that state a
// goal, diff counts those not on the most frequent one: 0 → 10, 1 → 7,
// otherwise 3. A group where nobody states a goal scores 3.
func GoalAlignment(members []model.Participant) float64 {
	if len(members) == 0 {
		return 0
	}
	var s Scorer
	return s.goal(members)
}

// GenderBalance scores 10 when at least two genders are present, else 3.
func GenderBalance(members []model.Participant) float64 {
	if len(members) == 0 {
		return 0
	}
	var s Scorer
	return genderBucket(s.distinct(members, genderOf))
}

// table returns the counting table emptied for the next calculator.
func (s *Scorer) table() map[string]int {
	if s.counts == nil {
		s.counts = make(map[string]int, 16)
	} else {
		clear(s.counts)
	}
	return s.counts
}

func (s *Scorer) time(members []model.Participant) float64 {
	counts := s.table()
	maxOverlap := 0
	for i := range members {
		slots := members[i].TimeSlots
		for k, slot := range slots {
			if slot == "" || listedBefore(slots[:k], slot) {
				continue
			}
			counts[slot]++
			maxOverlap = max(maxOverlap, counts[slot])
		}
	}
	switch {
	case maxOverlap == len(members):
		return timeAllShare
	case 2*maxOverlap > len(members):
		return timeMajorityShare
	default:
		return timeMinorityShare
	}
}

func (s *Scorer) goal(members []model.Participant) float64 {
	counts := s.table()
	stated, modeCount := 0, 0
	for i := range members {
		g := members[i].Goal
		if g == "" {
			continue
		}
		stated++
		counts[g]++
		modeCount = max(modeCount, counts[g])
	}
	if stated == 0 {
		return goalScattered
	}
	switch stated - modeCount {
	case 0:
		return goalAligned
	case 1:
		return goalOneOff
	default:
		return goalScattered
	}
}

// distinct counts the non-empty values attr yields over members.
func (s *Scorer) distinct(members []model.Participant, attr func(*model.Participant) string) int {
	seen := s.table()
	for i := range members {
		if v := attr(&members[i]); v != "" {
			seen[v] = 1
		}
	}
	return len(seen)
}

// listedBefore reports whether slot already appears in earlier; members list
// a handful of slots, so a scan beats a set.
func listedBefore(earlier []string, slot string) bool {
	for _, e := range earlier {
		if e == slot {
			return true
		}
	}
	return false
}

func skillOf(p *model.Participant) string     { return p.Skill }
func roleOf(p *model.Participant) string      { return p.Role }
func majorOf(p *model.Participant) string     { return p.Major }
func continentOf(p *model.Participant) string { return p.Continent }
func genderOf(p *model.Participant) string    { return p.Gender }

func skillBucket(d int) float64 {
	switch {
	case d >= 5:
		return 10
	case d == 4:
		return 8
	case d == 3:
		return 6
	default:
		return 3
	}
}

func roleBucket(d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(min(scoreMax, 3*d-2))
}

func genderBucket(d int) float64 {
	if d >= 2 {
		return genderMixed
	}
	return genderSingle
}

func spreadOfThree(d int) float64 {
	switch {
	case d >= 3:
		return 10
	case d == 2:
		return 6
	default:
		return 2
	}
}
