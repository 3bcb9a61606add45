package planner

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInsufficientParticipants = errors.New("insufficient participants")
	ErrInvalidTargetSize        = errors.New("invalid target size")
)
