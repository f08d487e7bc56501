package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// QueueName names a durable work queue.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type QueueName string

// EntryStatus is the state of a queue entry.
type EntryStatus string

const (
	// QueueMain carries Perplexity search entries.
	QueueMain QueueName = "main-job-queue"
	// QueueGoogleSearch carries Google search entries.
	QueueGoogleSearch QueueName = "google-search-queue"
	// QueueNews carries news analysis entries.
	QueueNews QueueName = "news-queue"

	// EntryStatusPending means the entry is waiting for a worker (or for its retry delay).
	EntryStatusPending EntryStatus = "pending"
	// EntryStatusRunning means a worker holds the entry's lock.
	EntryStatusRunning EntryStatus = "running"
	// EntryStatusCompleted means the entry was acknowledged.
	EntryStatusCompleted EntryStatus = "completed"
	// EntryStatusFailed means the entry was dead-lettered.
	EntryStatusFailed EntryStatus = "failed"
)

// ErrNoEntriesAvailable is returned when a queue has nothing to reserve.
var ErrNoEntriesAvailable = errors.New("no queue entries available")

// AllQueues lists every known queue.
func AllQueues() []QueueName {
	return []QueueName{QueueMain, QueueGoogleSearch, QueueNews}
}

// Valid returns true if the queue is known.
func (q QueueName) Valid() bool {
	return q == QueueMain || q == QueueGoogleSearch || q == QueueNews
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QueueName) UnmarshalText(text []byte) error {
	v := QueueName(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid queue name: %q", v)
	}
	*q = v
	return nil
}

// JobType returns the job type whose entries travel on this queue.
func (q QueueName) JobType() JobType {
	switch q {
	case QueueMain:
		return JobTypeSearch
	case QueueGoogleSearch:
		return JobTypeGoogleSearch
	case QueueNews:
		return JobTypeNews
	default:
		return ""
	}
}

// Valid returns true if the status is known.
func (s EntryStatus) Valid() bool {
	return s == EntryStatusPending || s == EntryStatusRunning || s == EntryStatusCompleted ||
		s == EntryStatusFailed
}

// QueueEntry is the in-flight, at-least-once delivered representation of a job.
type QueueEntry struct {
	ID             string          `json:"id"                       db:"id"`
	Queue          QueueName       `json:"queue"                    db:"queue"`
	Name           string          `json:"name"                     db:"name"`
	RecordID       *string         `json:"recordId,omitempty"       db:"record_id"`
	Payload        json.RawMessage `json:"payload"                  db:"payload"`
	Status         EntryStatus     `json:"status"                   db:"status"`
	Attempts       int             `json:"attempts"                 db:"attempts"`
	MaxAttempts    int             `json:"maxAttempts"              db:"max_attempts"`
	StalledCount   int             `json:"stalledCount"             db:"stalled_count"`
	MaxStalled     int             `json:"maxStalled"               db:"max_stalled"`
	LastError      *string         `json:"lastError,omitempty"      db:"last_error"`
	ScheduledAt    time.Time       `json:"scheduledAt"              db:"scheduled_at"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"      db:"started_at"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"    db:"completed_at"`
	LeaseExpiresAt *time.Time      `json:"leaseExpiresAt,omitempty" db:"lease_expires_at"`
	ReservationID  string          `json:"reservationId,omitempty"  db:"reservation_id"`
	CreatedAt      time.Time       `json:"createdAt"                db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt"                db:"updated_at"`
}

// Lease identifies one reservation of an entry. A fresh ReservationID is minted on every
// reservation and cleared when the entry leaves running, so writes carrying a superseded
// lease match nothing.
type Lease struct {
	EntryID       string
	ReservationID string
}

// Lease returns the reservation the caller currently holds on e.
func (e *QueueEntry) Lease() Lease {
	return Lease{EntryID: e.ID, ReservationID: e.ReservationID}
}

// EntryPayload is the payload mirror carried by entries created by the producer.
type EntryPayload struct {
	RecordID  string `json:"recordId,omitempty"`
	Query     string `json:"query,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Note      string `json:"note,omitempty"`
}

// DecodeEntryPayload parses an entry payload. An empty payload decodes to the zero value.
func DecodeEntryPayload(raw json.RawMessage) (EntryPayload, error) {
	var p EntryPayload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode entry payload: %w", err)
	}
	return p, nil
}

// EnqueueRequest is the input for adding an entry to a queue.
type EnqueueRequest struct {
	Queue    QueueName
	Name     string
	RecordID *string
	Payload  any
	// MaxAttempts overrides the queue default when positive.
	MaxAttempts int
	// MaxStalled overrides the queue default when set.
	MaxStalled *int
	// Delay postpones the first delivery.
	Delay time.Duration
}

// Validate checks the request before it reaches the store.
func (r *EnqueueRequest) Validate() error {
	if !r.Queue.Valid() {
		return fmt.Errorf("invalid queue: %q", r.Queue)
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("entry name is required")
	}
	if r.MaxAttempts < 0 {
		return errors.New("max attempts must be >= 0")
	}
	if r.MaxStalled != nil && *r.MaxStalled < 0 {
		return errors.New("max stalled must be >= 0")
	}
	if r.Delay < 0 {
		return errors.New("delay must be >= 0")
	}
	return nil
}

// FailRequest records a failed attempt.
type FailRequest struct {
	ID            string
	ReservationID string
	Reason        string
	// RetryAt is when the entry becomes visible again if the budget allows a retry.
	RetryAt time.Time
	// Terminal dead-letters the entry regardless of the attempts left.
	Terminal bool
}

// FailOutcome reports how a failed attempt was resolved.
type FailOutcome struct {
	// Updated is false when the entry was no longer held (lease lost or already resolved).
	Updated      bool
	DeadLettered bool
	Attempts     int
	NextRunAt    *time.Time
}

// QueueStats counts entries per status.
type QueueStats struct {
	Queue     QueueName `json:"queue"`
	Pending   int       `json:"pending"`
	Running   int       `json:"running"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
}

// EntryListOptions filters queue listings.
type EntryListOptions struct {
	Queue  *QueueName
	Status *EntryStatus
	Limit  int
	Offset int
}

// StalledRecovery reports the result of a stalled-entry sweep.
type StalledRecovery struct {
	Requeued     int64
	DeadLettered []*QueueEntry
}

// StalledErrorMessage is recorded on entries dead-lettered by the stall detector.
const StalledErrorMessage = "job stalled more than allowable limit"
