package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrNegativeWeight   = errors.New("negative weight")
	ErrInvalidProfile   = errors.New("invalid weight profile")
)
