package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/briefq/briefq/internal/data/pgxutil"
	"github.com/briefq/briefq/internal/domain/model"
)

const reserveNextSQL = `
  WITH cte AS (
    SELECT id FROM queue_entries
    WHERE queue = $1 AND status = 'pending' AND scheduled_at <= $2
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE queue_entries q
  SET
    status = 'running',
    started_at = $2,
    lease_expires_at = $3,
    reservation_id = gen_random_uuid(),
    updated_at = $2
  FROM cte
  WHERE q.id = cte.id
  RETURNING ` + qualifiedEntryColumns

const qualifiedEntryColumns = `q.id, q.queue, q.name, q.record_id, q.payload, q.status, q.attempts, q.max_attempts,
  q.stalled_count, q.max_stalled, q.last_error, q.scheduled_at, q.started_at, q.completed_at,
  q.lease_expires_at, q.reservation_id, q.created_at, q.updated_at`

// Enqueue inserts a pending entry and notifies listeners in the same transaction.
func (r *QueueRepo) Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.QueueEntry, error) {
	if req == nil {
		return nil, errors.New("enqueue request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := []byte(`{}`)
	if req.Payload != nil {
		b, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		payload = b
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	maxStalled := defaultMaxStalled
	if req.MaxStalled != nil {
		maxStalled = *req.MaxStalled
	}
	scheduledAt := r.timeProvider.Now().Add(req.Delay).UTC()

	var entry *model.QueueEntry
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			row := tx.QueryRowContext(ctx, `
				INSERT INTO queue_entries (queue, name, record_id, payload, max_attempts, max_stalled, scheduled_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
				RETURNING `+entryColumns,
				req.Queue, req.Name, nullIfEmpty(req.RecordID), payload, maxAttempts, maxStalled,
				scheduledAt, r.timeProvider.Now().UTC(),
			)
			e, err := scanEntry(row)
			if err != nil {
				return fmt.Errorf("insert queue entry: %w", err)
			}
			entry = e
			return pgxutil.Notify(ctx, tx, NotifyChannel(req.Queue), e.ID)
		},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ReserveNext locks the oldest ready entry of queue for leaseSeconds.
func (r *QueueRepo) ReserveNext(ctx context.Context, queue model.QueueName, leaseSeconds int) (*model.QueueEntry, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("invalid queue: %s", queue)
	}
	if leaseSeconds <= 0 {
		return nil, ErrInvalidLease
	}

	var entry *model.QueueEntry
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx *sql.Tx) error {
			now := r.timeProvider.Now().UTC()
			leaseExpiresAt := now.Add(time.Duration(leaseSeconds) * time.Second)

			e, err := scanEntry(tx.QueryRowContext(ctx, reserveNextSQL, queue, now, leaseExpiresAt))
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNoEntriesAvailable
			}
			if err != nil {
				return fmt.Errorf("reserve entry: %w", err)
			}
			entry = e
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// WaitForNotification blocks until an entry is enqueued on queue or ctx ends.
func (r *QueueRepo) WaitForNotification(ctx context.Context, queue model.QueueName) error {
	return pgxutil.WaitForNotification(ctx, r.DB, NotifyChannel(queue))
}

// Heartbeat extends the lease of a running entry. Returns false when the lease is no longer held.
func (r *QueueRepo) Heartbeat(ctx context.Context, lease model.Lease, leaseSeconds int) (bool, error) {
	if leaseSeconds <= 0 {
		return false, ErrInvalidLease
	}
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE queue_entries
		SET lease_expires_at = $2,
		    updated_at = $3
		WHERE id = $1 AND status = 'running' AND reservation_id::text = $4
	`, lease.EntryID, now.Add(time.Duration(leaseSeconds)*time.Second), now, lease.ReservationID)
	if err != nil {
		return false, fmt.Errorf("heartbeat entry: %w", err)
	}
	return rowsChanged(res)
}

// Ack marks a running entry completed. Returns false when the lease is no longer held.
func (r *QueueRepo) Ack(ctx context.Context, lease model.Lease) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE queue_entries
		SET status = 'completed',
		    completed_at = $2,
		    lease_expires_at = NULL,
		    reservation_id = NULL,
		    last_error = NULL,
		    updated_at = $2
		WHERE id = $1 AND status = 'running' AND reservation_id::text = $3
	`, lease.EntryID, now, lease.ReservationID)
	if err != nil {
		return false, fmt.Errorf("ack entry: %w", err)
	}
	return rowsChanged(res)
}

// Fail records a failed attempt: the entry is dead-lettered when the attempt budget is spent
// or req.Terminal is set, otherwise it becomes pending again at req.RetryAt.
func (r *QueueRepo) Fail(ctx context.Context, req model.FailRequest) (model.FailOutcome, error) {
	now := r.timeProvider.Now().UTC()
	retryAt := req.RetryAt.UTC()
	if req.RetryAt.IsZero() || retryAt.Before(now) {
		retryAt = now
	}

	var (
		status      model.EntryStatus
		attempts    int
		scheduledAt time.Time
	)
	err := r.DB.QueryRowContext(ctx, `
		UPDATE queue_entries
		SET
		  last_error = $2,
		  attempts = attempts + 1,
		  status = CASE WHEN $5::boolean OR attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
		  completed_at = CASE WHEN $5::boolean OR attempts + 1 >= max_attempts THEN $3::timestamptz ELSE NULL END,
		  scheduled_at = CASE WHEN $5::boolean OR attempts + 1 >= max_attempts THEN scheduled_at ELSE $4::timestamptz END,
		  lease_expires_at = NULL,
		  reservation_id = NULL,
		  updated_at = $3
		WHERE id = $1 AND status = 'running' AND reservation_id::text = $6
		RETURNING status, attempts, scheduled_at
	`, req.ID, req.Reason, now, retryAt, req.Terminal, req.ReservationID).Scan(&status, &attempts, &scheduledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FailOutcome{}, nil
	}
	if err != nil {
		return model.FailOutcome{}, fmt.Errorf("fail entry: %w", err)
	}

	out := model.FailOutcome{
		Updated:      true,
		DeadLettered: status == model.EntryStatusFailed,
		Attempts:     attempts,
	}
	if !out.DeadLettered {
		next := scheduledAt.UTC()
		out.NextRunAt = &next
	}
	return out, nil
}

// Retry moves a dead-lettered entry back to pending with a fresh budget and reopens its failed
// JobRecord so the redelivery can complete it.
func (r *QueueRepo) Retry(ctx context.Context, id string) (bool, error) {
	var retried bool
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			now := r.timeProvider.Now().UTC()
			var (
				queue    model.QueueName
				recordID sql.NullString
			)
			err := tx.QueryRowContext(ctx, `
				UPDATE queue_entries
				SET status = 'pending',
				    attempts = 0,
				    stalled_count = 0,
				    last_error = NULL,
				    completed_at = NULL,
				    started_at = NULL,
				    scheduled_at = $2,
				    updated_at = $2
				WHERE id = $1 AND status = 'failed'
				RETURNING queue, record_id
			`, id, now).Scan(&queue, &recordID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("retry entry: %w", err)
			}
			if recordID.Valid {
				if _, err := tx.ExecContext(ctx, `
					UPDATE job_records
					SET status = 'pending', last_error = NULL, updated_at = $2
					WHERE id = $1 AND status = 'failed'
				`, recordID.String, now); err != nil {
					return fmt.Errorf("reopen job record: %w", err)
				}
			}
			retried = true
			return pgxutil.Notify(ctx, tx, NotifyChannel(queue), id)
		},
	})
	if err != nil {
		return false, err
	}
	return retried, nil
}

// GetByID returns one entry or ErrEntryNotFound.
func (r *QueueRepo) GetByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue entry: %w", err)
	}
	return e, nil
}

func rowsChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
