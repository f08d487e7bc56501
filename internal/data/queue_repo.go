package data

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/briefq/briefq/internal/domain/model"
)

// Fallbacks applied when an EnqueueRequest leaves the budget unset.
const (
	defaultMaxAttempts = 3
	defaultMaxStalled  = 0
)

// QueueRepoConfig holds optional settings for QueueRepo.
type QueueRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// QueueRepo is the Postgres lease queue behind every named queue.
type QueueRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewQueueRepo creates a QueueRepo.
func NewQueueRepo(db *sql.DB, cfg QueueRepoConfig) *QueueRepo {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueRepo{
		DB:           db,
		timeProvider: nowOrReal(cfg.TimeProvider),
		logger:       logger.With("component", "queue_repo"),
	}
}

// NotifyChannel is the LISTEN/NOTIFY channel announcing new entries on queue.
func NotifyChannel(queue model.QueueName) string {
	return "queue_" + string(queue)
}

const entryColumns = `
  id,
  queue,
  name,
  record_id,
  payload,
  status,
  attempts,
  max_attempts,
  stalled_count,
  max_stalled,
  last_error,
  scheduled_at,
  started_at,
  completed_at,
  lease_expires_at,
  reservation_id,
  created_at,
  updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

type entryRowData struct {
	payload                                []byte
	recordID, lastError, reservationID     sql.NullString
	startedAt, completedAt, leaseExpiresAt sql.NullTime
}

func scanEntry(scanner rowScanner) (*model.QueueEntry, error) {
	e := &model.QueueEntry{}
	var d entryRowData
	if err := scanner.Scan(
		&e.ID,
		&e.Queue,
		&e.Name,
		&d.recordID,
		&d.payload,
		&e.Status,
		&e.Attempts,
		&e.MaxAttempts,
		&e.StalledCount,
		&e.MaxStalled,
		&d.lastError,
		&e.ScheduledAt,
		&d.startedAt,
		&d.completedAt,
		&d.leaseExpiresAt,
		&d.reservationID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Payload = cloneJSON(d.payload)
	e.RecordID = nullableString(d.recordID)
	e.LastError = nullableString(d.lastError)
	e.StartedAt = nullableTime(d.startedAt)
	e.CompletedAt = nullableTime(d.completedAt)
	e.LeaseExpiresAt = nullableTime(d.leaseExpiresAt)
	e.ReservationID = d.reservationID.String
	e.ScheduledAt = e.ScheduledAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]*model.QueueEntry, error) {
	defer rows.Close()
	var out []*model.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullIfEmpty(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
