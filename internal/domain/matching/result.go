package matching

import (
	"math"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
)

// TopFactorCount is how many criteria are tagged on each team.
const TopFactorCount = 2

// Team is one finished group.
type Team struct {
	Number     int                 `json:"number"` // 1-based, in planned order
	Members    []model.Participant `json:"members"`
	Scores     scoring.Breakdown   `json:"scores"`
	Total      float64             `json:"total"`
	TopFactors []string            `json:"top_factors"`
}

// Summary describes the spread of team totals.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // population
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Result is the output of one Run.
type Result struct {
	Teams        []Team  `json:"teams"`
	Summary      Summary `json:"summary"`
	Profile      string  `json:"profile"`
	ProfileFound bool    `json:"profile_found"`
	Iterations   int     `json:"iterations"`
	Swaps        int     `json:"swaps"`
	Converged    bool    `json:"converged"`
}

// Summarize computes count, mean, population standard deviation, min and max
// of the given totals. An empty input yields the zero Summary.
func Summarize(totals []float64) Summary {
	if len(totals) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(totals), Min: totals[0], Max: totals[0]}
	var sum float64
	for _, t := range totals {
		sum += t
		s.Min = math.Min(s.Min, t)
		s.Max = math.Max(s.Max, t)
	}
	s.Mean = sum / float64(len(totals))

	var sq float64
	for _, t := range totals {
		d := t - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(totals)))
	return s
}
