package data

import (
	"context"
	"fmt"

	"github.com/briefq/briefq/internal/domain/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxListLimit)
}

// filterQueryBuilder appends "AND col = $n" clauses for optional filters.
type filterQueryBuilder struct {
	query  string
	args   []any
	argIdx int
}

func newFilterQueryBuilder(base string) *filterQueryBuilder {
	return &filterQueryBuilder{query: base, argIdx: 1}
}

func (b *filterQueryBuilder) addFilter(column string, value any) {
	b.query += fmt.Sprintf(" AND %s = $%d", column, b.argIdx)
	b.args = append(b.args, value)
	b.argIdx++
}

func (b *filterQueryBuilder) page(orderBy string, limit, offset int) (string, []any) {
	q := b.query + fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", orderBy, b.argIdx, b.argIdx+1)
	return q, append(b.args, limit, offset)
}

// Stats counts entries of queue by status.
func (r *QueueRepo) Stats(ctx context.Context, queue model.QueueName) (*model.QueueStats, error) {
	s := model.QueueStats{Queue: queue}
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'running')   AS running,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'failed')    AS failed
  FROM queue_entries
  WHERE queue = $1
  `, queue).Scan(&s.Pending, &s.Running, &s.Completed, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return &s, nil
}

// List returns entries newest first with optional queue and status filters.
func (r *QueueRepo) List(ctx context.Context, opts model.EntryListOptions) ([]*model.QueueEntry, error) {
	b := newFilterQueryBuilder(`SELECT ` + entryColumns + ` FROM queue_entries WHERE 1=1`)
	if opts.Queue != nil && *opts.Queue != "" {
		b.addFilter("queue", *opts.Queue)
	}
	if opts.Status != nil && *opts.Status != "" {
		b.addFilter("status", *opts.Status)
	}
	query, args := b.page("created_at DESC, id DESC", clampLimit(opts.Limit, defaultListLimit), max(opts.Offset, 0))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("scan queue entries: %w", err)
	}
	return entries, nil
}

// HasActiveEntry reports whether recordID has a pending or running entry on any queue.
func (r *QueueRepo) HasActiveEntry(ctx context.Context, recordID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM queue_entries
			WHERE record_id = $1 AND status IN ('pending', 'running')
		)
	`, recordID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active entry: %w", err)
	}
	return exists, nil
}
