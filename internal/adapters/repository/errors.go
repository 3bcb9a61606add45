package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound          = errors.New("run not found")
	ErrDuplicateID       = errors.New("run id already exists")
	ErrStoreFull         = errors.New("run store full")
	ErrInvalidTransition = errors.New("invalid run status transition")
)
