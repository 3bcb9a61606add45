// Package model contains domain models passed between layers.
package model

// Participant is one person eligible for grouping. Every categorical attribute
// is optional; an empty value means "not stated" and never counts toward a
// scoring bucket.
type Participant struct {
	ID        string   `json:"id"`
	Number    int      `json:"number"` // display number, unique within a batch
	TimeSlots []string `json:"time_slots,omitempty"`
	Skill     string   `json:"skill,omitempty"`
	Role      string   `json:"role,omitempty"`
	Major     string   `json:"major,omitempty"`
	Goal      string   `json:"goal,omitempty"`
	Continent string   `json:"continent,omitempty"`
	Gender    string   `json:"gender,omitempty"`
}

// ProfileComplete reports whether every scoring attribute is stated. Callers
// use it to pre-filter rosters; the engine itself accepts partial profiles.
func (p Participant) ProfileComplete() bool {
	return len(p.TimeSlots) > 0 &&
		p.Skill != "" &&
		p.Role != "" &&
		p.Major != "" &&
		p.Goal != "" &&
		p.Continent != "" &&
		p.Gender != ""
}

// Clone returns a copy that shares no backing arrays with p.
func (p Participant) Clone() Participant {
	if p.TimeSlots != nil {
		slots := make([]string, len(p.TimeSlots))
		copy(slots, p.TimeSlots)
		p.TimeSlots = slots
	}
	return p
}

// Eligible returns the participants with complete profiles, preserving order.
func Eligible(participants []Participant) []Participant {
	out := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.ProfileComplete() {
			out = append(out, p)
		}
	}
	return out
}
