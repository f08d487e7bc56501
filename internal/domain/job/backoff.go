package job

import (
	"fmt"
	"strings"
	"time"
)

// BackoffKind selects how retry delays grow.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type BackoffKind string

const (
	// BackoffFixed waits the same delay before every retry.
	BackoffFixed BackoffKind = "fixed"
	// BackoffExponential doubles the delay per attempt up to a cap.
	BackoffExponential BackoffKind = "exponential"
)

// Valid returns true if the kind is known.
func (k BackoffKind) Valid() bool {
	return k == BackoffFixed || k == BackoffExponential
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BackoffKind) UnmarshalText(text []byte) error {
	v := BackoffKind(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid backoff: %q", v)
	}
	*k = v
	return nil
}

// Default retry delays.
const (
	DefaultBackoffDelay = 5 * time.Second
	DefaultBackoffMax   = 5 * time.Minute
)

// RetryPolicy computes when a failed entry becomes visible again.
type RetryPolicy struct {
	Kind  BackoffKind
	Delay time.Duration
	Max   time.Duration
}

// DefaultRetryPolicy returns exponential backoff from 5s capped at 5m.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Kind: BackoffExponential, Delay: DefaultBackoffDelay, Max: DefaultBackoffMax}
}

// Backoff returns the delay after the given number of failed attempts (1-based).
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	base := p.Delay
	if base <= 0 {
		base = DefaultBackoffDelay
	}
	limit := p.Max
	if limit <= 0 {
		limit = DefaultBackoffMax
	}
	if base > limit {
		return limit
	}
	if p.Kind != BackoffExponential || attempts <= 1 {
		return base
	}

	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}

// NextRunAt returns now plus the backoff for attempts.
func (p RetryPolicy) NextRunAt(now time.Time, attempts int) time.Time {
	return now.Add(p.Backoff(attempts))
}
