package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

// Enqueuer is the part of QueueService the producer needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.QueueEntry, error)
}

// ProducerServiceOptions groups dependencies for ProducerService.
type ProducerServiceOptions struct {
	Records core.JobRecordRepository // Required
	Queue   Enqueuer                 // Required
	Logger  *slog.Logger
}

// ProducerService turns submissions into a pending JobRecord plus one queue entry.
type ProducerService struct {
	records core.JobRecordRepository
	queue   Enqueuer
	logger  *slog.Logger
}

// NewProducerService constructs a ProducerService.
func NewProducerService(opts ProducerServiceOptions) (*ProducerService, error) {
	if opts.Records == nil {
		return nil, errors.New("JobRecordRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("queue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProducerService{
		records: opts.Records,
		queue:   opts.Queue,
		logger:  logger.With("component", "producer"),
	}, nil
}

// Submit validates a search submission, stores the record and enqueues it.
// If enqueueing fails the record stays pending and is picked up by RetryPending.
func (s *ProducerService) Submit(ctx context.Context, jobType model.JobType, req model.SubmitJobRequest) (*model.SubmitResult, error) {
	if jobType != model.JobTypeSearch && jobType != model.JobTypeGoogleSearch {
		return nil, apperrors.Validationf("unsupported job type %q", jobType)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		field := ""
		if !errors.Is(err, model.ErrQueryAndEmailRequired) {
			field = "userEmail"
		}
		return nil, &apperrors.AppError{Code: apperrors.ErrCodeValidation, Message: err.Error(), Field: field}
	}

	email := req.UserEmail
	rec, err := s.records.Create(ctx, &model.CreateJobRecordRequest{
		Type:      jobType,
		Payload:   model.JobPayload{Query: req.Query},
		UserEmail: &email,
	})
	if err != nil {
		return nil, apperrors.Persistence(err, "create job record")
	}

	return s.enqueue(ctx, rec, model.EntryPayload{RecordID: rec.ID, Query: req.Query, UserEmail: email})
}

// SubmitNews stores a news record carrying note and enqueues it.
func (s *ProducerService) SubmitNews(ctx context.Context, note string) (*model.SubmitResult, error) {
	rec, err := s.records.Create(ctx, &model.CreateJobRecordRequest{
		Type:    model.JobTypeNews,
		Payload: model.JobPayload{Note: note},
	})
	if err != nil {
		return nil, apperrors.Persistence(err, "create news record")
	}
	return s.enqueue(ctx, rec, model.EntryPayload{RecordID: rec.ID, Note: note})
}

// RetryPending re-enqueues pending, unnotified records that have no active queue entry.
// Running it twice in a row enqueues nothing the second time.
func (s *ProducerService) RetryPending(ctx context.Context, opts model.RetryPendingOptions) ([]*model.SubmitResult, error) {
	if opts.Type != nil && !opts.Type.Valid() {
		return nil, apperrors.Validationf("invalid job type %q", *opts.Type)
	}
	recs, err := s.records.ListRetryable(ctx, opts)
	if err != nil {
		return nil, apperrors.Persistence(err, "list retryable records")
	}

	out := make([]*model.SubmitResult, 0, len(recs))
	for _, rec := range recs {
		payload, err := entryPayloadFromRecord(rec)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping record with unreadable payload", "record_id", rec.ID, "error", err)
			continue
		}
		res, err := s.enqueue(ctx, rec, payload)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	if len(out) > 0 {
		s.logger.InfoContext(ctx, "pending records re-enqueued", "count", len(out))
	}
	return out, nil
}

func (s *ProducerService) enqueue(ctx context.Context, rec *model.JobRecord, payload model.EntryPayload) (*model.SubmitResult, error) {
	recordID := rec.ID
	entry, err := s.queue.Enqueue(ctx, &model.EnqueueRequest{
		Queue:    rec.Type.QueueName(),
		Name:     rec.Type.JobName(),
		RecordID: &recordID,
		Payload:  payload,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "enqueue failed, record left pending", "record_id", rec.ID, "error", err)
		if apperrors.GetCode(err) == "" {
			err = apperrors.QueueUnavailable(err, "enqueue job")
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "job submitted",
		"record_id", rec.ID,
		"entry_id", entry.ID,
		"job_type", rec.Type,
	)
	return &model.SubmitResult{JobID: entry.ID, DBID: rec.ID}, nil
}

func entryPayloadFromRecord(rec *model.JobRecord) (model.EntryPayload, error) {
	var p model.JobPayload
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return model.EntryPayload{}, fmt.Errorf("decode record payload: %w", err)
		}
	}
	return model.EntryPayload{
		RecordID:  rec.ID,
		Query:     p.Query,
		UserEmail: rec.Email(),
		Note:      p.Note,
	}, nil
}
