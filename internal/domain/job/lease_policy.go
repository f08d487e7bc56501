package job

import (
	"errors"
	"time"
)

// ErrInvalidLease indicates a lease duration that is not positive.
var ErrInvalidLease = errors.New("lease must be positive")

const minLease = time.Second

// LeasePolicy decides how long a reserved entry stays locked and how often the lock is renewed.
type LeasePolicy struct {
	lease time.Duration
}

// NewLeasePolicy constructs a LeasePolicy with the queue's lock duration.
func NewLeasePolicy(lease time.Duration) (*LeasePolicy, error) {
	if lease <= 0 {
		return nil, ErrInvalidLease
	}
	if lease < minLease {
		lease = minLease
	}
	return &LeasePolicy{lease: lease}, nil
}

// Lease returns the lock duration.
func (p *LeasePolicy) Lease() time.Duration {
	if p == nil {
		return 0
	}
	return p.lease
}

// Resolve returns request when positive, otherwise the policy lease. Results are at least one second.
func (p *LeasePolicy) Resolve(request time.Duration) time.Duration {
	d := request
	if d <= 0 {
		d = p.Lease()
	}
	if d < minLease {
		d = minLease
	}
	return d.Truncate(time.Second)
}

// HeartbeatInterval is half the lease so one missed renewal does not lose the lock.
func (p *LeasePolicy) HeartbeatInterval() time.Duration {
	interval := p.Lease() / 2
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	return interval
}
