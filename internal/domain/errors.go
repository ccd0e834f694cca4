package domain

import "errors"

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	// ErrAlreadyRunning is returned when a sync log of the same type is
	// already open with status running.
	ErrAlreadyRunning = errors.New("sync already running")

	// ErrInvalidTransition is returned when a sync log is moved out of a
	// terminal status.
	ErrInvalidTransition = errors.New("invalid sync status transition")
)
