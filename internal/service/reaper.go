package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/observability/metrics"
	"github.com/briefq/briefq/internal/observability/notify"
)

// StalledSweeper is the part of QueueService the reaper drives.
type StalledSweeper interface {
	RecoverStalled(ctx context.Context, queue model.QueueName) (*model.StalledRecovery, error)
	HandleDeadLettered(ctx context.Context, entries []*model.QueueEntry, cause string)
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: reaper repository
	Queue   StalledSweeper        // Required: stalled recovery and dead-letter hook
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics *metrics.Metrics      // Optional: Prometheus metrics
}

// ReaperService keeps the queue table healthy.
//
// Each pass:
// - recovers stalled entries of every queue, dead-lettering those over their stall budget.
// - dead-letters pending entries never picked up within PendingMaxAge, when that is set.
// - deletes old completed and failed entries.
//
// Dead-lettered entries go through the queue's dead-letter hook so their records are marked failed.
// Job records, histories and analyses are never deleted.
type ReaperService struct {
	repo    core.ReaperRepository
	queue   StalledSweeper
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("queue is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"interval", opts.Config.Interval,
		"pending_max_age", opts.Config.PendingMaxAge,
		"completed_max_age", opts.Config.CompletedMaxAge,
		"failed_max_age", opts.Config.FailedMaxAge,
	)

	return &ReaperService{
		repo:    opts.Repo,
		queue:   opts.Queue,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)

	// Jitter keeps replicas that start together from sweeping together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(ctx, err, "initial cleanup")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(ctx, err, "cleanup")
			}
		}
	}
}

// waitWithJitter sleeps a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	operation string
	label     string
	fn        cleanupFunc
}

// RunOnce performs one full cleanup pass. Every step runs even when an earlier one fails.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	steps := []cleanupStep{
		{operation: "recover_stalled", label: "recover stalled entries", fn: s.recoverStalled},
		{operation: "fail_pending", label: "fail stale pending entries", fn: s.failStalePendingEntries},
		{operation: "delete_completed", label: "delete old completed entries", fn: s.deleteOld(model.EntryStatusCompleted, s.config.CompletedMaxAge)},
		{operation: "delete_failed", label: "delete old failed entries", fn: s.deleteOld(model.EntryStatusFailed, s.config.FailedMaxAge)},
	}

	var (
		errs               []error
		allContextCanceled = true
	)
	for _, step := range steps {
		count, err := step.fn(ctx)
		s.metrics.ObserveReaperOperation(step.operation, count, suppressContextCancellation(err))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			allContextCanceled = allContextCanceled && isContextCancellation(err)
		}
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled {
			return context.Canceled
		}
		return fmt.Errorf("cleanup failed: %w", joined)
	}

	s.metrics.MarkReaperSuccess(time.Now())
	return nil
}

// recoverStalled sweeps every queue so stalls are caught even when no worker is reserving.
func (s *ReaperService) recoverStalled(ctx context.Context) (int64, error) {
	var (
		total int64
		errs  []error
	)
	for _, q := range model.AllQueues() {
		rec, err := s.queue.RecoverStalled(ctx, q)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", q, err))
			continue
		}
		total += rec.Requeued + int64(len(rec.DeadLettered))
	}
	return total, errors.Join(errs...)
}

// failStalePendingEntries dead-letters pending entries older than the configured max age.
// Loops until a batch comes back empty. A zero max age disables the step.
func (s *ReaperService) failStalePendingEntries(ctx context.Context) (int64, error) {
	if s.config.PendingMaxAge <= 0 {
		return 0, nil
	}
	var total int64
	for {
		failed, err := s.repo.FailStalePendingEntries(ctx, s.config.PendingMaxAge, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		if len(failed) == 0 {
			break
		}
		total += int64(len(failed))
		s.queue.HandleDeadLettered(ctx, failed, notify.CauseStalePending)

		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}

	if total > 0 {
		s.logger.InfoContext(ctx, "failed stale pending entries",
			"count", total,
			"max_age", s.config.PendingMaxAge,
		)
	}
	return total, nil
}

// deleteOld deletes terminal entries of status older than maxAge in batches.
func (s *ReaperService) deleteOld(status model.EntryStatus, maxAge time.Duration) cleanupFunc {
	return func(ctx context.Context) (int64, error) {
		var total int64
		for {
			count, err := s.repo.DeleteOldEntries(ctx, core.DeleteOldEntriesParams{
				Status:    status,
				MaxAge:    maxAge,
				BatchSize: s.config.BatchSize,
			})
			if err != nil {
				return total, err
			}
			total += count
			if count == 0 {
				break
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
		}

		if total > 0 {
			s.logger.InfoContext(ctx, "deleted old entries",
				"status", status,
				"count", total,
				"max_age", maxAge,
			)
		}
		return total, nil
	}
}

func (s *ReaperService) logCleanupError(ctx context.Context, err error, label string) {
	if err == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.DebugContext(ctx, label+" cancelled by context", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
