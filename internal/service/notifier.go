package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
	"github.com/briefq/briefq/internal/observability/metrics"
)

// Email subjects.
const (
	SubjectSearch       = "Your Perplexity Job Result"
	SubjectGoogleSearch = "Your Google Search Result"
	subjectNewsPrefix   = "Hourly news analysis: "
)

// EmailNotifierOptions groups dependencies for EmailNotifier.
type EmailNotifierOptions struct {
	// Sender may be nil, in which case every notification reports false.
	Sender  core.EmailSender
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// EmailNotifier sends job outcome emails and reports whether delivery succeeded. It never fails the caller.
type EmailNotifier struct {
	sender  core.EmailSender
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEmailNotifier constructs an EmailNotifier.
func NewEmailNotifier(opts EmailNotifierOptions) *EmailNotifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailNotifier{
		sender:  opts.Sender,
		timeout: timeout,
		logger:  logger.With("component", "email_notifier"),
		metrics: opts.Metrics,
	}
}

// Notify sends msg. It returns false for an empty recipient, a missing sender or any delivery error.
func (n *EmailNotifier) Notify(ctx context.Context, msg model.EmailMessage) bool {
	if n == nil || n.sender == nil {
		return false
	}
	if strings.TrimSpace(msg.To) == "" {
		n.logger.DebugContext(ctx, "notification skipped, no recipient", "subject", msg.Subject)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.sender.Send(sendCtx, msg); err != nil {
		err = apperrors.Notification(err, "send email")
		n.logger.ErrorContext(ctx, "notification failed", "to", msg.To, "subject", msg.Subject, "error", err)
		n.metrics.ObserveNotification(false)
		return false
	}
	n.metrics.ObserveNotification(true)
	n.logger.InfoContext(ctx, "notification sent", "to", msg.To, "subject", msg.Subject)
	return true
}

// SearchEmail builds the outcome email of a search or google-search job.
func SearchEmail(jobType model.JobType, to, summary string) model.EmailMessage {
	if jobType == model.JobTypeGoogleSearch {
		return model.EmailMessage{
			To:      to,
			Subject: SubjectGoogleSearch,
			Body:    "Your Google Search job is done!\n\nSummary:\n" + summary,
		}
	}
	return model.EmailMessage{
		To:      to,
		Subject: SubjectSearch,
		Body:    "Your job is done!\n\nSummary:\n" + summary,
	}
}

// NewsEmail builds the digest email for an analysed article.
func NewsEmail(to string, res *model.NewsResult) model.EmailMessage {
	title := strings.TrimSpace(res.Article.Title)
	analysis := strings.TrimSpace(res.AIAnalysis.RawJSONText)
	if analysis == "" {
		analysis = "No analysis available."
	}
	return model.EmailMessage{
		To:      to,
		Subject: subjectNewsPrefix + title,
		Body:    fmt.Sprintf("%s\n%s\n\nAnalysis:\n%s", title, res.Article.URL, analysis),
	}
}
