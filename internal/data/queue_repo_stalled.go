package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/briefq/briefq/internal/data/pgxutil"
	"github.com/briefq/briefq/internal/domain/model"
)

// Advisory lock namespace for stalled-entry recovery; the minor key is derived from the queue name.
const advisoryLockStalledMajor int32 = 1001

const recoverStalledSQL = `
  WITH expired AS (
    SELECT id FROM queue_entries
    WHERE queue = $1 AND status = 'running'
      AND lease_expires_at IS NOT NULL
      AND lease_expires_at < $2
    FOR UPDATE SKIP LOCKED
  )
  UPDATE queue_entries q
  SET
    stalled_count = q.stalled_count + 1,
    status = CASE WHEN q.stalled_count + 1 > q.max_stalled THEN 'failed' ELSE 'pending' END,
    last_error = CASE WHEN q.stalled_count + 1 > q.max_stalled THEN $3 ELSE q.last_error END,
    completed_at = CASE WHEN q.stalled_count + 1 > q.max_stalled THEN $2::timestamptz ELSE NULL END,
    lease_expires_at = NULL,
    reservation_id = NULL,
    updated_at = $2
  FROM expired
  WHERE q.id = expired.id
  RETURNING ` + qualifiedEntryColumns

// RecoverStalled handles running entries whose lease expired. Each stall is counted; entries over
// their stall budget are dead-lettered and returned, the rest become pending again.
// Concurrent callers on the same queue skip the sweep instead of waiting.
func (r *QueueRepo) RecoverStalled(ctx context.Context, queue model.QueueName) (*model.StalledRecovery, error) {
	if !queue.Valid() {
		return nil, fmt.Errorf("invalid queue: %s", queue)
	}

	out := &model.StalledRecovery{}
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, err := pgxutil.TryAdvisoryXactLock(ctx, tx, advisoryLockStalledMajor, pgxutil.LockKey(string(queue)))
			if err != nil || !locked {
				return err
			}

			rows, err := tx.QueryContext(ctx, recoverStalledSQL, queue, r.timeProvider.Now().UTC(), model.StalledErrorMessage)
			if err != nil {
				return fmt.Errorf("recover stalled: %w", err)
			}
			entries, err := scanEntries(rows)
			if err != nil {
				return fmt.Errorf("scan stalled: %w", err)
			}

			for _, e := range entries {
				if e.Status == model.EntryStatusFailed {
					out.DeadLettered = append(out.DeadLettered, e)
					continue
				}
				out.Requeued++
			}
			if out.Requeued > 0 {
				return pgxutil.Notify(ctx, tx, NotifyChannel(queue), "stalled")
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if out.Requeued > 0 || len(out.DeadLettered) > 0 {
		r.logger.InfoContext(ctx, "recovered stalled entries",
			"queue", queue,
			"requeued", out.Requeued,
			"dead_lettered", len(out.DeadLettered),
		)
	}
	return out, nil
}
