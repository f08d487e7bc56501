// Package scheduler triggers the hourly news job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/observability/metrics"
)

// Notes attached to scheduled news records.
const (
	NoteCron    = "Hourly cron trigger"
	NoteStartup = "Startup - first hourly news job"
)

// NewsSubmitter is the part of ProducerService the scheduler drives.
type NewsSubmitter interface {
	SubmitNews(ctx context.Context, note string) (*model.SubmitResult, error)
}

// FireLock lets exactly one replica act on a given cron fire.
type FireLock interface {
	AcquireFire(ctx context.Context, at time.Time) (bool, error)
}

// NewsSchedulerOptions holds the dependencies for creating a NewsScheduler.
type NewsSchedulerOptions struct {
	Submitter NewsSubmitter // Required
	// Lock may be nil, in which case every replica submits on every fire.
	Lock FireLock
	// Spec is a standard five-field cron expression.
	Spec         string
	RunOnStartup bool
	Location     *time.Location
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// NewsScheduler submits a news job on every cron fire.
type NewsScheduler struct {
	submitter    NewsSubmitter
	lock         FireLock
	schedule     cron.Schedule
	spec         string
	runOnStartup bool
	location     *time.Location
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// NewNewsScheduler validates the cron spec and constructs a NewsScheduler.
func NewNewsScheduler(opts NewsSchedulerOptions) (*NewsScheduler, error) {
	if opts.Submitter == nil {
		return nil, errors.New("news submitter is required")
	}
	schedule, err := cron.ParseStandard(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("parse news cron %q: %w", opts.Spec, err)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsScheduler{
		submitter:    opts.Submitter,
		lock:         opts.Lock,
		schedule:     schedule,
		spec:         opts.Spec,
		runOnStartup: opts.RunOnStartup,
		location:     loc,
		logger:       logger.With("component", "news_scheduler"),
		metrics:      opts.Metrics,
	}, nil
}

// Next returns the first fire after t.
func (s *NewsScheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Run starts the cron loop and blocks until ctx is cancelled. Returns nil on graceful shutdown.
func (s *NewsScheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.Recover(cron.DiscardLogger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.Fire(ctx, time.Now())
	}))

	s.logger.InfoContext(ctx, "starting news scheduler",
		"spec", s.spec,
		"next", s.Next(time.Now()),
		"run_on_startup", s.runOnStartup,
	)

	if s.runOnStartup {
		s.submit(ctx, "startup", NoteStartup)
	}

	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()

	s.logger.InfoContext(ctx, "news scheduler stopping", "reason", ctx.Err())
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// Fire handles one cron fire at the given time. It returns true when this replica submitted the job.
func (s *NewsScheduler) Fire(ctx context.Context, at time.Time) bool {
	if s.lock != nil {
		won, err := s.lock.AcquireFire(ctx, at)
		if err != nil {
			// Without the lock every replica may submit; the seen-URL dedupe absorbs the extra jobs.
			s.logger.WarnContext(ctx, "fire lock unavailable, submitting anyway", "error", err)
		} else if !won {
			s.logger.DebugContext(ctx, "fire already claimed by another replica", "at", at)
			s.metrics.ObserveSchedulerFire("cron", metrics.ResultNoop, nil)
			return false
		}
	}
	return s.submit(ctx, "cron", NoteCron)
}

func (s *NewsScheduler) submit(ctx context.Context, trigger, note string) bool {
	res, err := s.submitter.SubmitNews(ctx, note)
	if err != nil {
		s.logger.ErrorContext(ctx, "news job submit failed", "trigger", trigger, "error", err)
		s.metrics.ObserveSchedulerFire(trigger, metrics.ResultError, err)
		return false
	}
	s.logger.InfoContext(ctx, "news job submitted", "trigger", trigger, "job_id", res.JobID, "record_id", res.DBID)
	s.metrics.ObserveSchedulerFire(trigger, metrics.ResultSuccess, nil)
	return true
}
