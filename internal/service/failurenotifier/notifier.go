// Package failurenotifier fans dead-letter alerts out to the configured sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/briefq/briefq/internal/domain/model"
	obserrors "github.com/briefq/briefq/internal/observability/errors"
	"github.com/briefq/briefq/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service dispatches dead-letter events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs a failure notifier. Nil sinks are skipped.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
	}
}

// NotifyDeadLetter sends payload to every sink concurrently and waits for all of them.
// Sink errors are logged, never returned.
func (s *Service) NotifyDeadLetter(ctx context.Context, payload notify.DeadLetterPayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now()
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendDeadLetter(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "dead-letter alert delivery failed",
					"sink", entry.Name,
					"entry_id", payload.EntryID,
					"queue", payload.Queue,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}

// PayloadFromEntry builds the alert for a dead-lettered entry.
func PayloadFromEntry(entry *model.QueueEntry, cause string, err error) notify.DeadLetterPayload {
	p := notify.DeadLetterPayload{
		Cause:      cause,
		ErrorClass: obserrors.Classify(err),
		Severity:   notify.SeverityCritical,
		OccurredAt: time.Now(),
	}
	if err != nil {
		p.Error = err.Error()
	}
	if entry == nil {
		return p
	}

	p.EntryID = entry.ID
	p.Queue = string(entry.Queue)
	p.JobName = entry.Name
	p.JobType = string(entry.Queue.JobType())
	p.Attempts = entry.Attempts
	if entry.RecordID != nil {
		p.RecordID = *entry.RecordID
	}
	if p.Error == "" && entry.LastError != nil {
		p.Error = *entry.LastError
	}
	if entry.StalledCount > 0 {
		p.Metadata = map[string]string{"stalled_count": strconv.Itoa(entry.StalledCount)}
	}
	return p
}
