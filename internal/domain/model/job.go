// Package model defines the core data types shared by the briefq stores, services and transports.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// JobType identifies what kind of work a job record describes.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// RecordStatus is the lifecycle state of a JobRecord.
type RecordStatus string

const (
	// JobTypeSearch is a Perplexity search job.
	JobTypeSearch JobType = "search"
	// JobTypeGoogleSearch is a Google Custom Search job.
	JobTypeGoogleSearch JobType = "google_search"
	// JobTypeNews is an hourly headline analysis job.
	JobTypeNews JobType = "news"

	// RecordStatusPending means the job has been accepted but has not finished.
	RecordStatusPending RecordStatus = "pending"
	// RecordStatusCompleted means the processor succeeded and the result is stored.
	RecordStatusCompleted RecordStatus = "completed"
	// RecordStatusFailed means the queue entry exhausted its retry budget.
	RecordStatusFailed RecordStatus = "failed"
)

// AllJobTypes lists every job type in queue registration order.
func AllJobTypes() []JobType {
	return []JobType{JobTypeSearch, JobTypeGoogleSearch, JobTypeNews}
}

// Valid returns true if the JobType is known.
func (t JobType) Valid() bool {
	return t == JobTypeSearch || t == JobTypeGoogleSearch || t == JobTypeNews
}

// UnmarshalText implements encoding.TextUnmarshaler so job types can be read from env and query strings.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	v = strings.ReplaceAll(v, "-", "_")
	jt := JobType(v)
	if !jt.Valid() {
		return fmt.Errorf("invalid JobType: %q", v)
	}
	*t = jt
	return nil
}

// QueueName returns the queue that carries entries for this job type.
func (t JobType) QueueName() QueueName {
	switch t {
	case JobTypeSearch:
		return QueueMain
	case JobTypeGoogleSearch:
		return QueueGoogleSearch
	case JobTypeNews:
		return QueueNews
	default:
		return ""
	}
}

// JobName returns the entry name used when enqueuing this job type.
func (t JobType) JobName() string {
	switch t {
	case JobTypeSearch:
		return "searchQuery"
	case JobTypeGoogleSearch:
		return "googleSearch"
	case JobTypeNews:
		return "newsJob"
	default:
		return ""
	}
}

// HistoryKind returns the per-user history the job type appends to, if any.
func (t JobType) HistoryKind() (HistoryKind, bool) {
	switch t {
	case JobTypeSearch:
		return HistoryKindPerplexity, true
	case JobTypeGoogleSearch:
		return HistoryKindGoogle, true
	default:
		return "", false
	}
}

// Valid returns true if the RecordStatus is known.
func (s RecordStatus) Valid() bool {
	return s == RecordStatusPending || s == RecordStatusCompleted || s == RecordStatusFailed
}

// JobRecord is the durable record of a job's intent and outcome.
type JobRecord struct {
	ID        string          `json:"id"                   db:"id"`
	Type      JobType         `json:"jobType"              db:"job_type"`
	Payload   json.RawMessage `json:"payload"              db:"payload"`
	UserEmail *string         `json:"userEmail,omitempty"  db:"user_email"`
	Status    RecordStatus    `json:"status"               db:"status"`
	Result    json.RawMessage `json:"result,omitempty"     db:"result"`
	EmailSent bool            `json:"emailSent"            db:"email_sent"`
	LastError *string         `json:"lastError,omitempty"  db:"last_error"`
	CreatedAt time.Time       `json:"createdAt"            db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt"            db:"updated_at"`
}

// Email returns the record's user email or "" when none was supplied.
func (r *JobRecord) Email() string {
	if r == nil || r.UserEmail == nil {
		return ""
	}
	return *r.UserEmail
}

// JobPayload is the opaque input a JobRecord carries.
type JobPayload struct {
	Query string `json:"query,omitempty"`
	Note  string `json:"note,omitempty"`
}

// CreateJobRecordRequest is the input for inserting a new pending JobRecord.
type CreateJobRecordRequest struct {
	Type      JobType
	Payload   JobPayload
	UserEmail *string
}

// Validate checks the request before it reaches the store.
func (r *CreateJobRecordRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("invalid job type: %q", r.Type)
	}
	if r.Type != JobTypeNews && strings.TrimSpace(r.Payload.Query) == "" {
		return errors.New("query is required")
	}
	return nil
}

// SubmitJobRequest is the body of a job submission.
type SubmitJobRequest struct {
	Query     string `json:"query"`
	UserEmail string `json:"userEmail"`
}

// Normalize trims whitespace from all fields.
func (r *SubmitJobRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	r.UserEmail = strings.TrimSpace(r.UserEmail)
}

// ErrQueryAndEmailRequired is returned when a submission is missing either required field.
var ErrQueryAndEmailRequired = errors.New("query and userEmail are required")

// Validate requires a query and a well-formed email address.
func (r *SubmitJobRequest) Validate() error {
	if r.Query == "" || r.UserEmail == "" {
		return ErrQueryAndEmailRequired
	}
	if _, err := mail.ParseAddress(r.UserEmail); err != nil {
		return fmt.Errorf("userEmail is not a valid address: %w", err)
	}
	return nil
}

// SubmitResult identifies the queue entry and the record created for a submission.
type SubmitResult struct {
	JobID string `json:"jobId"`
	DBID  string `json:"dbId"`
}

// RecordListOptions filters JobRecord listings.
type RecordListOptions struct {
	Type      *JobType
	Status    *RecordStatus
	EmailSent *bool
	Limit     int
	Offset    int
}

// CompleteRecordRequest carries write #1 of the worker pipeline.
type CompleteRecordRequest struct {
	ID     string
	Result json.RawMessage
}

// RetryPendingOptions scopes a retry-pending sweep.
type RetryPendingOptions struct {
	Type  *JobType
	Limit int
}
