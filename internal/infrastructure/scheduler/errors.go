package scheduler

import "errors"

var (
	// ErrNotRunning is returned when interacting with a stopped worker
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when worker configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
