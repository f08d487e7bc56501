package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// HistoryKind separates a user's histories by product surface.
type HistoryKind string

const (
	// HistoryKindPerplexity holds Perplexity search history.
	HistoryKindPerplexity HistoryKind = "perplexitySearch"
	// HistoryKindGoogle holds Google search history.
	HistoryKindGoogle HistoryKind = "googleSearch"
)

// Valid returns true if the kind is known.
func (k HistoryKind) Valid() bool {
	return k == HistoryKindPerplexity || k == HistoryKindGoogle
}

// HistoryDocument groups the entries of one user for one kind.
type HistoryDocument struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"userEmail"`
	Kind      HistoryKind     `json:"jobType"`
	Entries   []*HistoryEntry `json:"history"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// HistoryEntry is one completed job summary in a user's history.
type HistoryEntry struct {
	ID            string          `json:"_id"                     db:"id"`
	CorrelationID *string         `json:"correlationId,omitempty" db:"correlation_id"`
	RecordID      *string         `json:"recordId,omitempty"      db:"record_id"`
	Query         string          `json:"query"                   db:"query"`
	Result        json.RawMessage `json:"result,omitempty"        db:"result"`
	Status        string          `json:"status"                  db:"status"`
	EmailSent     bool            `json:"emailSent"               db:"email_sent"`
	CreatedAt     time.Time       `json:"createdAt"               db:"created_at"`
}

// AppendHistoryRequest adds an entry to the (user, kind) document, creating it when missing.
type AppendHistoryRequest struct {
	UserEmail     string          `json:"userEmail"`
	Kind          HistoryKind     `json:"-"`
	CorrelationID *string         `json:"-"`
	RecordID      *string         `json:"-"`
	Query         string          `json:"query"`
	Result        json.RawMessage `json:"result,omitempty"`
	Status        string          `json:"status,omitempty"`
	EmailSent     bool            `json:"emailSent"`
}

// ErrUserEmailRequired is returned by history operations without an owner.
var ErrUserEmailRequired = errors.New("userEmail is required")

// Validate checks the request before it reaches the store.
func (r *AppendHistoryRequest) Validate() error {
	if strings.TrimSpace(r.UserEmail) == "" {
		return ErrUserEmailRequired
	}
	if !r.Kind.Valid() {
		return errors.New("invalid history kind")
	}
	return nil
}

// HistoryEntryRef addresses one entry within a user's document.
type HistoryEntryRef struct {
	UserEmail string
	Kind      HistoryKind
	EntryID   string
}

// Validate checks the reference.
func (r HistoryEntryRef) Validate() error {
	if strings.TrimSpace(r.UserEmail) == "" {
		return ErrUserEmailRequired
	}
	if strings.TrimSpace(r.EntryID) == "" {
		return errors.New("historyId is required")
	}
	if !r.Kind.Valid() {
		return errors.New("invalid history kind")
	}
	return nil
}

// RenameHistoryRequest changes the query text of one entry.
type RenameHistoryRequest struct {
	HistoryID string `json:"historyId"`
	NewQuery  string `json:"newQuery"`
	UserEmail string `json:"userEmail"`
}

// ErrHistoryNotFound is returned when a user has no history document of a kind.
var ErrHistoryNotFound = errors.New("history not found")
