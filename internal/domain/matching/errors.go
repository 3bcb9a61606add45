package matching

import "github.com/okian/huddle/internal/domain/planner"

// Sentinel errors returned by Run. They are the planner's sentinels so callers
// can errors.Is against either package.
var (
	ErrInsufficientParticipants = planner.ErrInsufficientParticipants
	ErrInvalidTargetSize        = planner.ErrInvalidTargetSize
)
