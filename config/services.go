package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domainjob "github.com/briefq/briefq/internal/domain/job"
	"github.com/briefq/briefq/internal/domain/model"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSearchWorker runs the Perplexity search queue workers.
	ServiceModeSearchWorker ServiceMode = "search-worker"
	// ServiceModeGoogleSearchWorker runs the Google search queue workers.
	ServiceModeGoogleSearchWorker ServiceMode = "google-search-worker"
	// ServiceModeNewsWorker runs the news queue workers.
	ServiceModeNewsWorker ServiceMode = "news-worker"
	// ServiceModeNewsScheduler runs the hourly news trigger.
	ServiceModeNewsScheduler ServiceMode = "news-scheduler"
	// ServiceModeReaper runs the queue reaper for cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeSearchWorker,
		ServiceModeGoogleSearchWorker,
		ServiceModeNewsWorker,
		ServiceModeNewsScheduler,
		ServiceModeReaper,
	}
}

// WorkerMode returns the service mode that runs the workers of queue.
func WorkerMode(queue model.QueueName) ServiceMode {
	switch queue {
	case model.QueueMain:
		return ServiceModeSearchWorker
	case model.QueueGoogleSearch:
		return ServiceModeGoogleSearchWorker
	case model.QueueNews:
		return ServiceModeNewsWorker
	default:
		return ""
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	valid := make(map[ServiceMode]bool, len(ValidServiceModes()))
	names := make([]string, 0, len(ValidServiceModes()))
	for _, m := range ValidServiceModes() {
		valid[m] = true
		names = append(names, string(m))
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}
		mode := ServiceMode(serviceName)
		if !valid[mode] {
			return nil, fmt.Errorf("invalid service name: %q (valid options: %s)", serviceName, strings.Join(names, ", "))
		}
		services[mode] = true
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// RunnerConfig contains the worker and delivery settings of one queue.
type RunnerConfig struct {
	// Concurrency is the number of worker goroutines. Zero selects the queue default.
	Concurrency int `env:"CONCURRENCY" envDefault:"0"`

	// Lease is how long a reserved entry stays locked without a heartbeat.
	Lease time.Duration `env:"LEASE" envDefault:"60s"`

	// MaxAttempts is the number of processing attempts before an entry is dead-lettered.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`

	// MaxStalled is how many lease expiries an entry survives before it is dead-lettered.
	MaxStalled int `env:"MAX_STALLED" envDefault:"0"`

	// Backoff is fixed or exponential.
	Backoff domainjob.BackoffKind `env:"BACKOFF" envDefault:"exponential"`

	// BackoffDelay is the first retry delay.
	BackoffDelay time.Duration `env:"BACKOFF_DELAY" envDefault:"5s"`

	// BackoffMax caps exponential delays.
	BackoffMax time.Duration `env:"BACKOFF_MAX" envDefault:"5m"`
}

func (r *RunnerConfig) sanitize(defaultConcurrency int) {
	if r.Concurrency < 1 {
		r.Concurrency = defaultConcurrency
	}
	if r.Lease < 5*time.Second {
		r.Lease = 5 * time.Second
	}
	if r.MaxAttempts < 1 {
		r.MaxAttempts = 1
	}
	if r.MaxStalled < 0 {
		r.MaxStalled = 0
	}
	if !r.Backoff.Valid() {
		r.Backoff = domainjob.BackoffExponential
	}
	if r.BackoffDelay <= 0 {
		r.BackoffDelay = domainjob.DefaultBackoffDelay
	}
	if r.BackoffMax < r.BackoffDelay {
		r.BackoffMax = r.BackoffDelay
	}
}

// RetryPolicy returns the backoff settings as a domain retry policy.
func (r RunnerConfig) RetryPolicy() domainjob.RetryPolicy {
	return domainjob.RetryPolicy{Kind: r.Backoff, Delay: r.BackoffDelay, Max: r.BackoffMax}
}

// Default worker counts per queue.
const (
	DefaultSearchConcurrency = 5
	DefaultGoogleConcurrency = 5
	DefaultNewsConcurrency   = 2
)

// QueuesConfig groups the runner settings of every queue.
type QueuesConfig struct {
	Search RunnerConfig `envPrefix:"SEARCH_WORKER_"`
	Google RunnerConfig `envPrefix:"GOOGLE_WORKER_"`
	News   RunnerConfig `envPrefix:"NEWS_WORKER_"`
}

// Sanitize applies guardrails to every queue.
func (q *QueuesConfig) Sanitize() {
	q.Search.sanitize(DefaultSearchConcurrency)
	q.Google.sanitize(DefaultGoogleConcurrency)
	q.News.sanitize(DefaultNewsConcurrency)
}

// For returns the runner settings of queue.
func (q *QueuesConfig) For(queue model.QueueName) RunnerConfig {
	switch queue {
	case model.QueueGoogleSearch:
		return q.Google
	case model.QueueNews:
		return q.News
	default:
		return q.Search
	}
}

// ReaperConfig contains queue reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// PendingMaxAge dead-letters pending entries never picked up within this age. 0 disables the step.
	PendingMaxAge time.Duration `env:"REAPER_PENDING_MAX_AGE" envDefault:"0"`

	// CompletedMaxAge is the maximum age for completed entries before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// FailedMaxAge is the maximum age for failed entries before deletion.
	FailedMaxAge time.Duration `env:"REAPER_FAILED_MAX_AGE" envDefault:"168h"` // 7 days

	// BatchSize is the maximum number of rows to process per operation.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Minimum intervals keep the sweep from hammering the database.
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	switch {
	case r.PendingMaxAge < 0:
		r.PendingMaxAge = 0
	case r.PendingMaxAge > 0 && r.PendingMaxAge < 5*time.Minute:
		r.PendingMaxAge = 5 * time.Minute
	}
	if r.CompletedMaxAge < 1*time.Hour {
		r.CompletedMaxAge = 1 * time.Hour
	}
	if r.FailedMaxAge < 1*time.Hour {
		r.FailedMaxAge = 1 * time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
