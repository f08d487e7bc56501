package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrRecordNotFound       = errors.New("job record not found")
	ErrEntryNotFound        = errors.New("queue entry not found")
	ErrHistoryEntryNotFound = errors.New("history entry not found")
	ErrInvalidLease         = errors.New("lease seconds must be positive")
)
