package model

// Canonical attribute values used by the roster tooling and API docs. The
// engine treats attributes as opaque categories and does not enforce these.
var (
	TimeSlots  = []string{"weekday_morning", "weekday_afternoon", "weekday_evening", "weekend_morning", "weekend_afternoon", "weekend_evening"}
	Skills     = []string{"beginner", "novice", "intermediate", "advanced", "expert"}
	Roles      = []string{"leader", "developer", "designer", "researcher", "presenter"}
	Majors     = []string{"computer_science", "business", "design", "engineering", "humanities", "natural_science"}
	Goals      = []string{"learning", "portfolio", "grade", "competition"}
	Continents = []string{"africa", "asia", "europe", "north_america", "south_america", "oceania"}
	Genders    = []string{"female", "male", "non_binary"}
)
