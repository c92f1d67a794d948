package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when a job id does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrRunNotFound is returned when a run id does not exist.
	ErrRunNotFound = errors.New("run not found")
	// ErrOrderNotFound is returned when a content order id does not exist.
	ErrOrderNotFound = errors.New("content order not found")
	// ErrDraftNotFound is returned when a draft id does not exist.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrProfileNotFound is returned when a user has no creator profile.
	ErrProfileNotFound = errors.New("creator profile not found")
)
