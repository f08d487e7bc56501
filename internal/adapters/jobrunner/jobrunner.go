// Package jobrunner runs the worker pool of one queue.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	domainjob "github.com/briefq/briefq/internal/domain/job"
	"github.com/briefq/briefq/internal/domain/model"
	obserrors "github.com/briefq/briefq/internal/observability/errors"
)

// Queue is the part of service.QueueService a runner drives.
type Queue interface {
	ReserveNext(ctx context.Context, queue model.QueueName) (*model.QueueEntry, error)
	Subscribe(queue model.QueueName) (func(), <-chan struct{})
	Heartbeat(ctx context.Context, entry *model.QueueEntry) (bool, error)
	Ack(ctx context.Context, entry *model.QueueEntry, took time.Duration) (bool, error)
	Fail(ctx context.Context, entry *model.QueueEntry, cause error) (model.FailOutcome, error)
	LeasePolicy(queue model.QueueName) *domainjob.LeasePolicy
}

// Processor handles one reserved entry. A returned error sends the entry down the retry path.
type Processor interface {
	Process(ctx context.Context, entry *model.QueueEntry) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, entry *model.QueueEntry) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, entry *model.QueueEntry) error {
	return f(ctx, entry)
}

const defaultErrorBackoff = time.Second

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Queue     Queue           // Required
	Processor Processor       // Required
	QueueName model.QueueName // Required
	// Concurrency is the number of worker goroutines; defaults to 1.
	Concurrency int
	// ErrorBackoff is the pause after a failed reservation; defaults to 1s.
	ErrorBackoff time.Duration
	Logger       *slog.Logger
}

// Runner pulls entries from one queue and executes them with a bounded worker pool.
type Runner struct {
	queue        Queue
	processor    Processor
	queueName    model.QueueName
	workers      int
	errorBackoff time.Duration
	logger       *slog.Logger
}

// NewRunner constructs a runner for a single queue.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("queue is required")
	}
	if opts.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if !opts.QueueName.Valid() {
		return nil, fmt.Errorf("invalid queue: %q", opts.QueueName)
	}

	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	backoff := opts.ErrorBackoff
	if backoff <= 0 {
		backoff = defaultErrorBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		queue:        opts.Queue,
		processor:    opts.Processor,
		queueName:    opts.QueueName,
		workers:      workers,
		errorBackoff: backoff,
		logger:       logger.With("component", "job_runner", "queue", opts.QueueName),
	}, nil
}

// Run starts the workers and blocks until ctx is cancelled. In-flight entries finish first.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting job runner",
		"workers", r.workers,
		"lease", r.queue.LeasePolicy(r.queueName).Lease(),
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range r.workers {
		g.Go(func() error {
			return r.workerLoop(gctx, i)
		})
	}
	err := g.Wait()

	r.logger.InfoContext(ctx, "job runner stopped", "reason", ctx.Err())
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) workerLoop(ctx context.Context, worker int) error {
	unsub, notify := r.queue.Subscribe(r.queueName)
	defer unsub()

	for ctx.Err() == nil {
		entry, err := r.queue.ReserveNext(ctx, r.queueName)
		switch {
		case err == nil:
			r.processEntry(ctx, entry)
		case errors.Is(err, model.ErrNoEntriesAvailable):
			if !waitForNotify(ctx, notify) {
				return nil
			}
		case ctx.Err() != nil:
			return nil
		default:
			r.logger.ErrorContext(ctx, "reserve next failed", "worker", worker, "error", err)
			if !sleep(ctx, r.errorBackoff) {
				return nil
			}
		}
	}
	return nil
}

// waitForNotify returns false when the runner should stop.
func waitForNotify(ctx context.Context, notify <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case _, ok := <-notify:
		return ok
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// processEntry runs the processor under a heartbeat and settles the entry.
// Settlement uses a context detached from shutdown so a finished entry is never left running.
func (r *Runner) processEntry(ctx context.Context, entry *model.QueueEntry) {
	start := time.Now()
	logger := r.logger.With("entry_id", entry.ID, "attempt", entry.Attempts+1)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		r.heartbeat(hbCtx, entry)
	}()

	procErr := r.runProcessor(ctx, entry)
	stopHeartbeat()
	<-hbDone

	took := time.Since(start)
	settleCtx := context.WithoutCancel(ctx)

	if procErr != nil {
		logger.WarnContext(ctx, "entry failed",
			"error", procErr,
			"error_class", obserrors.Classify(procErr),
			"took", took,
		)
		if _, err := r.queue.Fail(settleCtx, entry, procErr); err != nil {
			logger.ErrorContext(ctx, "fail entry error", "error", err, "original_error", procErr)
		}
		return
	}

	acked, err := r.queue.Ack(settleCtx, entry, took)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "ack entry error", "error", err)
	case !acked:
		logger.WarnContext(ctx, "ack ignored, lease was lost", "took", took)
	default:
		logger.DebugContext(ctx, "entry completed", "took", took)
	}
}

func (r *Runner) runProcessor(ctx context.Context, entry *model.QueueEntry) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("processor panic: %v", p)
		}
	}()
	return r.processor.Process(ctx, entry)
}

// heartbeat renews the lease every lease/2 until ctx ends. A lost lease is logged; the handler keeps running.
func (r *Runner) heartbeat(ctx context.Context, entry *model.QueueEntry) {
	ticker := time.NewTicker(r.queue.LeasePolicy(entry.Queue).HeartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := r.queue.Heartbeat(ctx, entry)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.WarnContext(ctx, "heartbeat failed", "entry_id", entry.ID, "error", err)
				}
				continue
			}
			if !ok {
				r.logger.WarnContext(ctx, "lease lost during processing", "entry_id", entry.ID)
				return
			}
		}
	}
}
