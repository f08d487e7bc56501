package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/data/pgxutil"
	"github.com/briefq/briefq/internal/domain/model"
)

// Advisory lock namespace for reaper operations.
const (
	advisoryLockReaperMajor       int32 = 1000
	advisoryLockReaperFailPending int32 = 1
	advisoryLockReaperDelete      int32 = 2
)

// StalePendingErrorMessage is recorded on entries that waited too long to be picked up.
const StalePendingErrorMessage = "job timed out in pending status"

// FailStalePendingEntries dead-letters ready pending entries older than maxAge, up to batchSize per call.
// A non-positive maxAge disables the sweep.
func (r *QueueRepo) FailStalePendingEntries(ctx context.Context, maxAge time.Duration, batchSize int) ([]*model.QueueEntry, error) {
	if maxAge <= 0 || batchSize <= 0 {
		return nil, nil
	}

	var failed []*model.QueueEntry
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, err := pgxutil.TryAdvisoryXactLock(ctx, tx, advisoryLockReaperMajor, advisoryLockReaperFailPending)
			if err != nil || !locked {
				return err
			}

			now := r.timeProvider.Now().UTC()
			rows, err := tx.QueryContext(ctx, `
				UPDATE queue_entries q
				SET status = 'failed',
				    last_error = $3,
				    completed_at = $1,
				    updated_at = $1
				WHERE q.id IN (
					SELECT id FROM queue_entries
					WHERE status = 'pending'
					  AND scheduled_at < $2
					ORDER BY scheduled_at
					LIMIT $4
					FOR UPDATE SKIP LOCKED
				)
				RETURNING `+qualifiedEntryColumns,
				now, now.Add(-maxAge), StalePendingErrorMessage, batchSize)
			if err != nil {
				return fmt.Errorf("fail stale pending entries: %w", err)
			}
			failed, err = scanEntries(rows)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return failed, nil
}

// DeleteOldEntries deletes completed or failed entries older than MaxAge, up to BatchSize per call.
func (r *QueueRepo) DeleteOldEntries(ctx context.Context, params core.DeleteOldEntriesParams) (int64, error) {
	if params.Status != model.EntryStatusCompleted && params.Status != model.EntryStatusFailed {
		return 0, fmt.Errorf("only terminal entries can be deleted, got %q", params.Status)
	}
	if params.MaxAge <= 0 || params.BatchSize <= 0 {
		return 0, nil
	}

	var deleted int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, err := pgxutil.TryAdvisoryXactLock(ctx, tx, advisoryLockReaperMajor, advisoryLockReaperDelete)
			if err != nil || !locked {
				return err
			}

			cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
			res, err := tx.ExecContext(ctx, `
				DELETE FROM queue_entries
				WHERE id IN (
					SELECT id FROM queue_entries
					WHERE status = $1
					  AND COALESCE(completed_at, updated_at) < $2
					ORDER BY COALESCE(completed_at, updated_at)
					LIMIT $3
				)
			`, params.Status, cutoff, params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old entries: %w", err)
			}
			deleted, err = res.RowsAffected()
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

var (
	_ core.QueueRepository  = (*QueueRepo)(nil)
	_ core.ReaperRepository = (*QueueRepo)(nil)
)
