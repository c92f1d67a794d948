package job

import (
	"errors"
	"time"
)

// ErrInvalidDefaultLease indicates the configured default lease duration is not positive.
var ErrInvalidDefaultLease = errors.New("default lease must be positive")

// LeasePolicy normalises lease durations for job claims. Claims are leased
// so a crashed worker's job can be requeued instead of sticking in
// processing forever.
type LeasePolicy struct {
	defaultLease time.Duration
}

// NewLeasePolicy constructs a LeasePolicy with the provided default lease duration.
func NewLeasePolicy(defaultLease time.Duration) (*LeasePolicy, error) {
	if defaultLease <= 0 {
		return nil, ErrInvalidDefaultLease
	}
	return &LeasePolicy{defaultLease: defaultLease}, nil
}

// Default returns the configured default lease duration.
func (p *LeasePolicy) Default() time.Duration {
	if p == nil {
		return 0
	}
	return p.defaultLease
}

// Resolve normalises a requested lease to whole seconds. Zero requests fall
// back to the default; sub-second and negative requests clamp to one second.
// The bool reports whether clamping occurred.
func (p *LeasePolicy) Resolve(request time.Duration) (int, bool) {
	if request == 0 && p != nil {
		request = p.defaultLease
	}
	seconds := int(request / time.Second)
	if seconds <= 0 {
		return 1, true
	}
	return seconds, false
}
