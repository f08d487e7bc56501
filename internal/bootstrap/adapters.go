package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/adapters/jobrunner"
	"github.com/briefq/briefq/internal/adapters/reaper"
	schedrunner "github.com/briefq/briefq/internal/adapters/scheduler"
	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/observability/metrics"
	"github.com/briefq/briefq/internal/service"
)

// WorkerConfig contains configuration for one queue worker pool.
type WorkerConfig struct {
	Queue       jobrunner.Queue
	Processor   jobrunner.Processor
	QueueName   model.QueueName
	Concurrency int
	Logger      *slog.Logger
}

// RunWorker starts a worker pool draining one queue.
func RunWorker(ctx context.Context, cfg WorkerConfig) error {
	return runJobRunner(ctx, jobrunner.RunnerOptions{
		Queue:       cfg.Queue,
		Processor:   cfg.Processor,
		QueueName:   cfg.QueueName,
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
	})
}

// runJobRunner centralizes job runner setup so callers only pass queue-specific options.
func runJobRunner(ctx context.Context, opts jobrunner.RunnerOptions) error {
	label := workerLabel(opts.QueueName)

	runner, err := jobrunner.NewRunner(opts)
	if err != nil {
		return fmt.Errorf("create %s runner: %w", label, err)
	}

	if runErr := runner.Run(ctx); runErr != nil {
		return fmt.Errorf("run %s runner: %w", label, runErr)
	}
	return nil
}

func workerLabel(queue model.QueueName) string {
	switch queue {
	case model.QueueMain:
		return "search worker"
	case model.QueueGoogleSearch:
		return "google search worker"
	case model.QueueNews:
		return "news worker"
	}
	if queue == "" {
		return "worker"
	}
	return strings.ReplaceAll(string(queue), "-", " ")
}

// NewsSchedulerConfig contains configuration for the news scheduler.
type NewsSchedulerConfig struct {
	Submitter schedrunner.NewsSubmitter
	Lock      schedrunner.FireLock
	News      config.NewsConfig
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// RunNewsScheduler starts the cron-driven news submitter.
func RunNewsScheduler(ctx context.Context, cfg NewsSchedulerConfig) error {
	sched, err := schedrunner.NewNewsScheduler(schedrunner.NewsSchedulerOptions{
		Submitter:    cfg.Submitter,
		Lock:         cfg.Lock,
		Spec:         cfg.News.Cron,
		RunOnStartup: cfg.News.RunOnStartup,
		Logger:       cfg.Logger,
		Metrics:      cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create news scheduler: %w", err)
	}

	return sched.Run(ctx)
}

// ReaperConfig contains configuration for reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Queue   service.StalledSweeper
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics *metrics.Metrics
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Queue:   cfg.Queue,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
