// Package metrics exposes queue and pipeline metrics through a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/briefq/briefq/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Transition names.
const (
	TransitionReserve    = "reserve"
	TransitionAck        = "ack"
	TransitionFail       = "fail"
	TransitionRetry      = "retry"
	TransitionDeadLetter = "dead_letter"
	TransitionStalled    = "stalled"
)

// JobMetric captures one queue lifecycle event.
type JobMetric struct {
	Queue      string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// Metrics owns the collectors. A nil *Metrics is a valid no-op sink.
type Metrics struct {
	registry      *prometheus.Registry
	transitions   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	enqueued      *prometheus.CounterVec
	reaperOps     *prometheus.CounterVec
	reaperRows    *prometheus.CounterVec
	reaperSuccess prometheus.Gauge
	schedulerFire *prometheus.CounterVec
}

// New registers the collectors under namespace (default "briefq").
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "briefq"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_transitions_total",
			Help:      "Queue entry state transitions.",
		}, []string{"queue", "transition", "result", "error_class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent processing one queue entry.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"queue"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification email attempts by outcome.",
		}, []string{"result"}),
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enqueued_total",
			Help:      "Entries added per queue.",
		}, []string{"queue"}),
		reaperOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_operations_total",
			Help:      "Reaper cleanup operations by outcome.",
		}, []string{"operation", "result", "error_class"}),
		reaperRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_entries_total",
			Help:      "Queue entries failed or deleted by the reaper.",
		}, []string{"operation"}),
		reaperSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reaper_last_success_timestamp_seconds",
			Help:      "Unix time of the last cleanup pass without errors.",
		}),
		schedulerFire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_fires_total",
			Help:      "News scheduler fires by outcome. noop means another replica held the fire lock.",
		}, []string{"trigger", "result", "error_class"}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.duration,
		m.notifications,
		m.enqueued,
		m.reaperOps,
		m.reaperRows,
		m.reaperSuccess,
		m.schedulerFire,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// EmitJobLifecycle records a transition and, when set, its duration.
func (m *Metrics) EmitJobLifecycle(in JobMetric) {
	if m == nil {
		return
	}
	class := ""
	if in.Err != nil && in.Result == ResultError {
		class = obserrors.Classify(in.Err)
	}
	m.transitions.WithLabelValues(in.Queue, in.Transition, in.Result, class).Inc()
	if in.Duration > 0 {
		m.duration.WithLabelValues(in.Queue).Observe(in.Duration.Seconds())
	}
}

// ObserveNotification counts one notification attempt.
func (m *Metrics) ObserveNotification(sent bool) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if !sent {
		result = ResultError
	}
	m.notifications.WithLabelValues(result).Inc()
}

// ObserveEnqueue counts one entry added to queue.
func (m *Metrics) ObserveEnqueue(queue string) {
	if m == nil {
		return
	}
	m.enqueued.WithLabelValues(queue).Inc()
}

// ObserveReaperOperation records one cleanup operation and the rows it touched.
func (m *Metrics) ObserveReaperOperation(operation string, count int64, err error) {
	if m == nil {
		return
	}
	result, class := ResultSuccess, ""
	switch {
	case err != nil:
		result, class = ResultError, obserrors.Classify(err)
	case count == 0:
		result = ResultNoop
	}
	m.reaperOps.WithLabelValues(operation, result, class).Inc()
	if err == nil && count > 0 {
		m.reaperRows.WithLabelValues(operation).Add(float64(count))
	}
}

// MarkReaperSuccess records the time of a clean pass.
func (m *Metrics) MarkReaperSuccess(at time.Time) {
	if m == nil {
		return
	}
	m.reaperSuccess.Set(float64(at.Unix()))
}

// ObserveSchedulerFire counts one scheduler fire.
func (m *Metrics) ObserveSchedulerFire(trigger, result string, err error) {
	if m == nil {
		return
	}
	class := ""
	if err != nil {
		class = obserrors.Classify(err)
	}
	m.schedulerFire.WithLabelValues(trigger, result, class).Inc()
}
