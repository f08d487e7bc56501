package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/data"
	domainjob "github.com/briefq/briefq/internal/domain/job"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
	"github.com/briefq/briefq/internal/observability/metrics"
	"github.com/briefq/briefq/internal/observability/notify"
)

// Per-queue defaults.
const (
	DefaultLease       = 60 * time.Second
	DefaultMaxAttempts = 3
	DefaultMaxStalled  = 0
)

// QueueConfig holds the delivery settings of one queue.
type QueueConfig struct {
	Lease       time.Duration
	MaxAttempts int
	MaxStalled  int
	Retry       domainjob.RetryPolicy
}

// DefaultQueueConfig returns a 60s lease, 3 attempts, no allowed stall and exponential backoff.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Lease:       DefaultLease,
		MaxAttempts: DefaultMaxAttempts,
		MaxStalled:  DefaultMaxStalled,
		Retry:       domainjob.DefaultRetryPolicy(),
	}
}

func (c QueueConfig) withDefaults() QueueConfig {
	def := DefaultQueueConfig()
	if c.Lease <= 0 {
		c.Lease = def.Lease
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.MaxStalled < 0 {
		c.MaxStalled = def.MaxStalled
	}
	if !c.Retry.Kind.Valid() {
		c.Retry.Kind = def.Retry.Kind
	}
	return c
}

// DeadLetterHandler reacts to entries that reached the terminal failed state.
type DeadLetterHandler interface {
	DeadLetter(ctx context.Context, entry *model.QueueEntry, cause string, err error)
}

// DeadLetterFunc adapts a function to DeadLetterHandler.
type DeadLetterFunc func(ctx context.Context, entry *model.QueueEntry, cause string, err error)

// DeadLetter implements DeadLetterHandler.
func (f DeadLetterFunc) DeadLetter(ctx context.Context, entry *model.QueueEntry, cause string, err error) {
	if f != nil {
		f(ctx, entry, cause, err)
	}
}

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Repo core.QueueRepository // Required
	// Queues overrides per-queue settings; unset queues use DefaultQueueConfig.
	Queues          map[model.QueueName]QueueConfig
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	DeadLetter      DeadLetterHandler
	Notifier        domainjob.Notifier
	NotifierOptions domainjob.NotifierOptions
	Clock           func() time.Time
}

type queueState struct {
	cfg   QueueConfig
	lease *domainjob.LeasePolicy
}

// QueueService applies per-queue delivery policy on top of the queue store: defaults on enqueue,
// stalled recovery before each reservation, backoff on failure and dead-letter hooks.
type QueueService struct {
	repo       core.QueueRepository
	queues     map[model.QueueName]queueState
	notifier   domainjob.Notifier
	deadLetter DeadLetterHandler
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewQueueService constructs a QueueService.
func NewQueueService(opts QueueServiceOptions) (*QueueService, error) {
	if opts.Repo == nil {
		return nil, errors.New("QueueRepository is required")
	}

	queues := make(map[model.QueueName]queueState, len(model.AllQueues()))
	for _, q := range model.AllQueues() {
		cfg := DefaultQueueConfig()
		if override, ok := opts.Queues[q]; ok {
			cfg = override.withDefaults()
		}
		lease, err := domainjob.NewLeasePolicy(cfg.Lease)
		if err != nil {
			return nil, fmt.Errorf("lease policy for %s: %w", q, err)
		}
		queues[q] = queueState{cfg: cfg, lease: lease}
	}

	notifier := opts.Notifier
	if notifier == nil {
		options := opts.NotifierOptions
		if options.Waiter == nil {
			options.Waiter = opts.Repo
		}
		n, err := domainjob.NewNotifier(options)
		if err != nil {
			return nil, fmt.Errorf("create queue notifier: %w", err)
		}
		notifier = n
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &QueueService{
		repo:       opts.Repo,
		queues:     queues,
		notifier:   notifier,
		deadLetter: opts.DeadLetter,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "queue_service"),
		now:        now,
	}, nil
}

// MustNewQueueService constructs a QueueService and panics on error.
func MustNewQueueService(opts QueueServiceOptions) *QueueService {
	svc, err := NewQueueService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create QueueService: %v", err))
	}
	return svc
}

// Config returns the effective settings of queue.
func (s *QueueService) Config(queue model.QueueName) QueueConfig {
	return s.state(queue).cfg
}

// LeasePolicy returns the lease policy of queue.
func (s *QueueService) LeasePolicy(queue model.QueueName) *domainjob.LeasePolicy {
	return s.state(queue).lease
}

func (s *QueueService) state(queue model.QueueName) queueState {
	if st, ok := s.queues[queue]; ok {
		return st
	}
	lease, _ := domainjob.NewLeasePolicy(DefaultLease)
	return queueState{cfg: DefaultQueueConfig(), lease: lease}
}

// Enqueue adds an entry, filling the attempt and stall budgets from the queue config.
// Store failures are reported as queue_unavailable.
func (s *QueueService) Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.QueueEntry, error) {
	if req == nil {
		return nil, apperrors.Validation("enqueue request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid enqueue request")
	}

	cfg := s.state(req.Queue).cfg
	if req.MaxAttempts <= 0 {
		req.MaxAttempts = cfg.MaxAttempts
	}
	if req.MaxStalled == nil {
		ms := cfg.MaxStalled
		req.MaxStalled = &ms
	}

	entry, err := s.repo.Enqueue(ctx, req)
	if err != nil {
		return nil, apperrors.QueueUnavailable(err, "enqueue "+string(req.Queue))
	}
	s.metrics.ObserveEnqueue(string(req.Queue))
	s.logger.DebugContext(ctx, "entry enqueued", "id", entry.ID, "queue", entry.Queue, "name", entry.Name)
	return entry, nil
}

// ReserveNext recovers stalled entries of queue, then locks the next ready entry.
// It returns model.ErrNoEntriesAvailable when nothing is ready.
func (s *QueueService) ReserveNext(ctx context.Context, queue model.QueueName) (*model.QueueEntry, error) {
	if _, err := s.RecoverStalled(ctx, queue); err != nil {
		s.logger.WarnContext(ctx, "stalled recovery failed", "queue", queue, "error", err)
	}

	leaseSeconds := int(s.state(queue).lease.Resolve(0) / time.Second)
	entry, err := s.repo.ReserveNext(ctx, queue, leaseSeconds)
	if err != nil {
		if errors.Is(err, model.ErrNoEntriesAvailable) {
			return nil, err
		}
		s.metrics.EmitJobLifecycle(metrics.JobMetric{
			Queue: string(queue), Transition: metrics.TransitionReserve, Result: metrics.ResultError, Err: err,
		})
		return nil, fmt.Errorf("reserve next entry: %w", err)
	}

	s.metrics.EmitJobLifecycle(metrics.JobMetric{
		Queue: string(queue), Transition: metrics.TransitionReserve, Result: metrics.ResultSuccess,
	})
	s.logger.DebugContext(ctx, "entry reserved", "id", entry.ID, "queue", queue, "lease_seconds", leaseSeconds)
	return entry, nil
}

// RecoverStalled requeues expired leases and dead-letters entries over their stall budget.
func (s *QueueService) RecoverStalled(ctx context.Context, queue model.QueueName) (*model.StalledRecovery, error) {
	rec, err := s.repo.RecoverStalled(ctx, queue)
	if err != nil {
		return nil, fmt.Errorf("recover stalled entries: %w", err)
	}
	if rec == nil {
		return &model.StalledRecovery{}, nil
	}
	if rec.Requeued > 0 {
		s.metrics.EmitJobLifecycle(metrics.JobMetric{
			Queue: string(queue), Transition: metrics.TransitionStalled, Result: metrics.ResultSuccess,
		})
	}
	for _, entry := range rec.DeadLettered {
		s.metrics.EmitJobLifecycle(metrics.JobMetric{
			Queue: string(queue), Transition: metrics.TransitionDeadLetter, Result: metrics.ResultSuccess,
		})
		s.handleDeadLetter(ctx, entry, notify.CauseStalled, errors.New(model.StalledErrorMessage))
	}
	return rec, nil
}

// Subscribe registers for wake-ups on queue.
func (s *QueueService) Subscribe(queue model.QueueName) (func(), <-chan struct{}) {
	if s.notifier == nil {
		ch := make(chan struct{})
		close(ch)
		return func() {}, ch
	}
	return s.notifier.Subscribe(queue)
}

// Heartbeat renews the lease of a running entry. False means the lease was lost.
func (s *QueueService) Heartbeat(ctx context.Context, entry *model.QueueEntry) (bool, error) {
	leaseSeconds := int(s.state(entry.Queue).lease.Resolve(0) / time.Second)
	ok, err := s.repo.Heartbeat(ctx, entry.Lease(), leaseSeconds)
	if err != nil {
		return false, fmt.Errorf("heartbeat entry %s: %w", entry.ID, err)
	}
	return ok, nil
}

// Ack completes a running entry. took is the handler duration, recorded when positive.
func (s *QueueService) Ack(ctx context.Context, entry *model.QueueEntry, took time.Duration) (bool, error) {
	ok, err := s.repo.Ack(ctx, entry.Lease())
	if err != nil {
		s.metrics.EmitJobLifecycle(metrics.JobMetric{
			Queue: string(entry.Queue), Transition: metrics.TransitionAck, Result: metrics.ResultError, Err: err,
		})
		return false, fmt.Errorf("ack entry %s: %w", entry.ID, err)
	}
	result := metrics.ResultSuccess
	if !ok {
		result = metrics.ResultNoop
	}
	s.metrics.EmitJobLifecycle(metrics.JobMetric{
		Queue: string(entry.Queue), Transition: metrics.TransitionAck, Result: result, Duration: took,
	})
	return ok, nil
}

// Fail records a failed attempt. Entries with budget left come back after the queue's backoff;
// exhausted entries and permanent failures (validation, not_found) are dead-lettered and handed
// to the dead-letter hook.
func (s *QueueService) Fail(ctx context.Context, entry *model.QueueEntry, cause error) (model.FailOutcome, error) {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	cfg := s.state(entry.Queue).cfg
	req := model.FailRequest{
		ID:            entry.ID,
		ReservationID: entry.ReservationID,
		Reason:        cause.Error(),
		RetryAt:       cfg.Retry.NextRunAt(s.now(), entry.Attempts+1),
		Terminal:      apperrors.IsPermanent(cause),
	}

	out, err := s.repo.Fail(ctx, req)
	if err != nil {
		return model.FailOutcome{}, fmt.Errorf("fail entry %s: %w", entry.ID, err)
	}
	if !out.Updated {
		s.logger.WarnContext(ctx, "fail ignored, entry no longer held", "id", entry.ID, "queue", entry.Queue)
		return out, nil
	}

	transition := metrics.TransitionRetry
	if out.DeadLettered {
		transition = metrics.TransitionDeadLetter
	}
	s.metrics.EmitJobLifecycle(metrics.JobMetric{
		Queue: string(entry.Queue), Transition: transition, Result: metrics.ResultError, Err: cause,
	})

	if out.DeadLettered {
		failed := *entry
		failed.Attempts = out.Attempts
		failed.Status = model.EntryStatusFailed
		failed.LastError = &req.Reason
		deadCause := notify.CauseRetriesExhausted
		if req.Terminal {
			deadCause = notify.CausePermanent
		}
		s.handleDeadLetter(ctx, &failed, deadCause, cause)
		return out, nil
	}
	s.logger.InfoContext(ctx, "entry scheduled for retry",
		"id", entry.ID,
		"queue", entry.Queue,
		"attempts", out.Attempts,
		"next_run_at", out.NextRunAt,
		"error", cause,
	)
	return out, nil
}

// HandleDeadLettered runs the dead-letter hook for entries failed outside the worker path (reaper).
func (s *QueueService) HandleDeadLettered(ctx context.Context, entries []*model.QueueEntry, cause string) {
	for _, e := range entries {
		reason := cause
		if e.LastError != nil {
			reason = *e.LastError
		}
		s.handleDeadLetter(ctx, e, cause, errors.New(reason))
	}
}

func (s *QueueService) handleDeadLetter(ctx context.Context, entry *model.QueueEntry, cause string, err error) {
	s.logger.WarnContext(ctx, "entry dead-lettered",
		"id", entry.ID,
		"queue", entry.Queue,
		"cause", cause,
		"attempts", entry.Attempts,
		"error", err,
	)
	if s.deadLetter != nil {
		s.deadLetter.DeadLetter(ctx, entry, cause, err)
	}
}

// Retry moves a dead-lettered entry back to pending. It returns not_found for unknown ids
// and conflict for entries that are not dead-lettered.
func (s *QueueService) Retry(ctx context.Context, id string) error {
	ok, err := s.repo.Retry(ctx, id)
	if err != nil {
		return fmt.Errorf("retry entry %s: %w", id, err)
	}
	if ok {
		s.logger.InfoContext(ctx, "dead-lettered entry retried", "id", id)
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return apperrors.Conflict("entry is not dead-lettered")
}

// GetByID returns one entry or a not_found error.
func (s *QueueService) GetByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, data.ErrEntryNotFound) {
		return nil, apperrors.NotFoundf("queue entry %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return entry, nil
}

// Stats returns per-status counts for every queue.
func (s *QueueService) Stats(ctx context.Context) ([]*model.QueueStats, error) {
	out := make([]*model.QueueStats, 0, len(model.AllQueues()))
	for _, q := range model.AllQueues() {
		st, err := s.repo.Stats(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", q, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// List returns entries matching opts.
func (s *QueueService) List(ctx context.Context, opts model.EntryListOptions) ([]*model.QueueEntry, error) {
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// HasActiveEntry reports whether recordID has a pending or running entry.
func (s *QueueService) HasActiveEntry(ctx context.Context, recordID string) (bool, error) {
	return s.repo.HasActiveEntry(ctx, recordID)
}

// StopAllListeners stops every notification listener. Call on shutdown.
func (s *QueueService) StopAllListeners() {
	if s.notifier != nil {
		s.notifier.StopAll()
	}
}
