// Package notify defines the dead-letter alert payload and the sink contract alert backends implement.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// DeadLetterPayload describes a queue entry that reached its terminal failed state.
type DeadLetterPayload struct {
	EntryID    string
	Queue      string
	JobName    string
	JobType    string
	RecordID   string
	Attempts   int
	Error      string
	ErrorClass string
	// Cause is one of the dead-letter causes below.
	Cause      string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Dead-letter causes.
const (
	CauseRetriesExhausted = "retries_exhausted"
	CauseStalled          = "stalled"
	CauseStalePending     = "stale_pending"
	CausePermanent        = "permanent_failure"
)

// Sink describes a destination for dead-letter alerts.
type Sink interface {
	SendDeadLetter(ctx context.Context, payload DeadLetterPayload) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, payload DeadLetterPayload) error

// SendDeadLetter implements the Sink interface.
func (f SinkFunc) SendDeadLetter(ctx context.Context, payload DeadLetterPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
