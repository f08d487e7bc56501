package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
)

// JobRecordRepo stores JobRecords in the job_records table, one row per job with a job_type discriminator.
type JobRecordRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// JobRecordRepoConfig holds optional settings for JobRecordRepo.
type JobRecordRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewJobRecordRepo creates a JobRecordRepo.
func NewJobRecordRepo(db *sql.DB, cfg JobRecordRepoConfig) *JobRecordRepo {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRecordRepo{
		DB:           db,
		timeProvider: nowOrReal(cfg.TimeProvider),
		logger:       logger.With("component", "job_record_repo"),
	}
}

const recordColumns = `id, job_type, payload, user_email, status, result, email_sent, last_error, created_at, updated_at`

func scanRecord(scanner rowScanner) (*model.JobRecord, error) {
	rec := &model.JobRecord{}
	var (
		payload, result      []byte
		userEmail, lastError sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Type,
		&payload,
		&userEmail,
		&rec.Status,
		&result,
		&rec.EmailSent,
		&lastError,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Payload = cloneJSON(payload)
	rec.Result = cloneJSON(result)
	rec.UserEmail = nullableString(userEmail)
	rec.LastError = nullableString(lastError)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]*model.JobRecord, error) {
	defer rows.Close()
	var out []*model.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Create inserts a pending record.
func (r *JobRecordRepo) Create(ctx context.Context, req *model.CreateJobRecordRequest) (*model.JobRecord, error) {
	if req == nil {
		return nil, errors.New("create record request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, `
		INSERT INTO job_records (job_type, payload, user_email, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, $4)
		RETURNING `+recordColumns,
		req.Type, payload, nullIfEmpty(req.UserEmail), now,
	))
	if err != nil {
		return nil, fmt.Errorf("insert job record: %w", err)
	}
	return rec, nil
}

// GetByID returns a record or ErrRecordNotFound.
func (r *JobRecordRepo) GetByID(ctx context.Context, id string) (*model.JobRecord, error) {
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM job_records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job record: %w", err)
	}
	return rec, nil
}

// MarkCompleted stores the result and flips a pending record to completed. A record that is
// already completed or failed is left untouched and false is returned.
func (r *JobRecordRepo) MarkCompleted(ctx context.Context, req model.CompleteRecordRequest) (bool, error) {
	var result any
	if len(req.Result) > 0 {
		result = []byte(req.Result)
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE job_records
		SET status = 'completed',
		    result = $2,
		    last_error = NULL,
		    updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`, req.ID, result, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("complete job record: %w", err)
	}
	changed, err := rowsChanged(res)
	if err != nil || changed {
		return changed, err
	}
	return false, r.ensureExists(ctx, req.ID)
}

// SetEmailSent records the outcome of the notification attempt.
func (r *JobRecordRepo) SetEmailSent(ctx context.Context, id string, sent bool) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE job_records SET email_sent = $2, updated_at = $3 WHERE id = $1
	`, id, sent, r.timeProvider.Now().UTC())
	if err != nil {
		return fmt.Errorf("set email_sent: %w", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if !changed {
		return ErrRecordNotFound
	}
	return nil
}

// MarkFailed flips a record that has not completed to failed.
func (r *JobRecordRepo) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE job_records
		SET status = 'failed',
		    last_error = $2,
		    updated_at = $3
		WHERE id = $1 AND status <> 'completed'
	`, id, reason, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("fail job record: %w", err)
	}
	return rowsChanged(res)
}

// ListRetryable returns pending, unnotified records with no pending or running queue entry, oldest first.
func (r *JobRecordRepo) ListRetryable(ctx context.Context, opts model.RetryPendingOptions) ([]*model.JobRecord, error) {
	b := newFilterQueryBuilder(`
		SELECT ` + recordColumns + `
		FROM job_records jr
		WHERE jr.status = 'pending'
		  AND jr.email_sent = FALSE
		  AND NOT EXISTS (
		    SELECT 1 FROM queue_entries q
		    WHERE q.record_id = jr.id AND q.status IN ('pending', 'running')
		  )`)
	if opts.Type != nil && *opts.Type != "" {
		b.addFilter("jr.job_type", *opts.Type)
	}
	query, args := b.page("jr.created_at ASC, jr.id ASC", clampLimit(opts.Limit, maxListLimit), 0)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list retryable records: %w", err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan retryable records: %w", err)
	}
	return recs, nil
}

// List returns records newest first.
func (r *JobRecordRepo) List(ctx context.Context, opts model.RecordListOptions) ([]*model.JobRecord, error) {
	b := newFilterQueryBuilder(`SELECT ` + recordColumns + ` FROM job_records WHERE 1=1`)
	if opts.Type != nil && *opts.Type != "" {
		b.addFilter("job_type", *opts.Type)
	}
	if opts.Status != nil && *opts.Status != "" {
		b.addFilter("status", *opts.Status)
	}
	if opts.EmailSent != nil {
		b.addFilter("email_sent", *opts.EmailSent)
	}
	query, args := b.page("created_at DESC, id DESC", clampLimit(opts.Limit, defaultListLimit), max(opts.Offset, 0))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan job records: %w", err)
	}
	return recs, nil
}

func (r *JobRecordRepo) ensureExists(ctx context.Context, id string) error {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM job_records WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check job record: %w", err)
	}
	if !exists {
		return ErrRecordNotFound
	}
	return nil
}

var _ core.JobRecordRepository = (*JobRecordRepo)(nil)
