package rosterload

import "errors"

// Sentinel kinds for load run errors.
var (
	ErrUnhealthy        = errors.New("service unhealthy")
	ErrBackpressure     = errors.New("service applied backpressure")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrVerification     = errors.New("result verification failed")
	ErrIncomplete       = errors.New("runs did not finish")
)
