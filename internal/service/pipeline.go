package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/data"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
	"github.com/briefq/briefq/internal/service/failurenotifier"
)

// NewsRunner produces the result of a news job.
type NewsRunner interface {
	Process(ctx context.Context) (*model.NewsResult, error)
}

// PipelineOptions groups dependencies for Pipeline.
type PipelineOptions struct {
	Records core.JobRecordRepository // Required
	History core.HistoryRepository   // Required
	// Providers maps the search job types to their provider.
	Providers map[model.JobType]core.SearchProvider
	News      NewsRunner
	Analyses  core.NewsAnalysisRepository
	Cache     *core.NewsCache
	Notifier  *EmailNotifier
	Summary   *SummaryExtractor
	// NewsRecipient receives the news digest; empty disables it.
	NewsRecipient string
	Alerts        *failurenotifier.Service
	Logger        *slog.Logger
	// NewCorrelationID overrides uuid.NewString, mainly for tests.
	NewCorrelationID func() string
}

// Pipeline runs one delivered queue entry end to end: processor, record completion,
// history, notification and the emailSent follow-up write.
type Pipeline struct {
	records       core.JobRecordRepository
	history       core.HistoryRepository
	providers     map[model.JobType]core.SearchProvider
	news          NewsRunner
	analyses      core.NewsAnalysisRepository
	cache         *core.NewsCache
	notifier      *EmailNotifier
	summary       *SummaryExtractor
	newsRecipient string
	alerts        *failurenotifier.Service
	logger        *slog.Logger
	newID         func() string
}

// NewPipeline constructs a Pipeline.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Records == nil {
		return nil, errors.New("JobRecordRepository is required")
	}
	if opts.History == nil {
		return nil, errors.New("HistoryRepository is required")
	}
	summary := opts.Summary
	if summary == nil {
		s, err := NewSummaryExtractor(nil)
		if err != nil {
			return nil, err
		}
		summary = s
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := opts.NewCorrelationID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Pipeline{
		records:       opts.Records,
		history:       opts.History,
		providers:     opts.Providers,
		news:          opts.News,
		analyses:      opts.Analyses,
		cache:         opts.Cache,
		notifier:      opts.Notifier,
		summary:       summary,
		newsRecipient: strings.TrimSpace(opts.NewsRecipient),
		alerts:        opts.Alerts,
		logger:        logger.With("component", "pipeline"),
		newID:         newID,
	}, nil
}

type jobInput struct {
	record    *model.JobRecord
	query     string
	userEmail string
}

// Process handles one entry. Only errors before the record is completed are returned,
// so a later analysis, history or notification failure never re-runs the processor.
func (p *Pipeline) Process(ctx context.Context, entry *model.QueueEntry) error {
	in, err := p.resolve(ctx, entry)
	if err != nil {
		return err
	}
	rec := in.record
	if rec.Status != model.RecordStatusPending {
		p.logger.InfoContext(ctx, "record no longer pending, skipping",
			"record_id", rec.ID, "status", rec.Status, "entry_id", entry.ID)
		return nil
	}

	var (
		result json.RawMessage
		msg    model.EmailMessage
		news   *model.NewsResult
	)
	switch rec.Type {
	case model.JobTypeSearch, model.JobTypeGoogleSearch:
		result, err = p.search(ctx, rec.Type, in.query)
		if err != nil {
			return err
		}
		msg = SearchEmail(rec.Type, in.userEmail, p.summary.Summary(result))
	case model.JobTypeNews:
		if news, err = p.runNews(ctx); err != nil {
			return err
		}
		if result, err = json.Marshal(news); err != nil {
			return fmt.Errorf("encode news result: %w", err)
		}
		msg = NewsEmail(p.newsRecipient, news)
	default:
		return apperrors.Validationf("unsupported job type %q", rec.Type)
	}

	changed, err := p.records.MarkCompleted(ctx, model.CompleteRecordRequest{ID: rec.ID, Result: result})
	if err != nil {
		return apperrors.Persistence(err, "complete job record")
	}
	if !changed {
		p.logger.InfoContext(ctx, "record left pending state during processing", "record_id", rec.ID)
		return nil
	}

	if news != nil {
		p.storeAnalysis(ctx, rec.ID, news)
	}
	correlationID := p.appendHistory(ctx, rec, in, result)
	sent := p.notifier.Notify(ctx, msg)

	if err := p.records.SetEmailSent(ctx, rec.ID, sent); err != nil {
		p.logger.ErrorContext(ctx, "record email_sent update failed", "record_id", rec.ID, "error", err)
	}
	if correlationID != "" {
		if ok, err := p.history.SetEmailSent(ctx, correlationID, sent); err != nil {
			p.logger.ErrorContext(ctx, "history email_sent update failed",
				"record_id", rec.ID, "correlation_id", correlationID, "error", err)
		} else if !ok {
			p.logger.WarnContext(ctx, "history entry not found for email_sent update",
				"record_id", rec.ID, "correlation_id", correlationID)
		}
	}

	p.logger.InfoContext(ctx, "job completed",
		"record_id", rec.ID,
		"entry_id", entry.ID,
		"job_type", rec.Type,
		"email_sent", sent,
	)
	return nil
}

// DeadLetter marks the entry's record failed and sends a dead-letter alert. It implements DeadLetterHandler.
func (p *Pipeline) DeadLetter(ctx context.Context, entry *model.QueueEntry, cause string, err error) {
	if entry == nil {
		return
	}
	reason := cause
	if err != nil {
		reason = err.Error()
	}

	recordID := entryRecordID(entry)
	if recordID != "" {
		changed, merr := p.records.MarkFailed(ctx, recordID, reason)
		switch {
		case merr != nil:
			p.logger.ErrorContext(ctx, "mark record failed", "record_id", recordID, "entry_id", entry.ID, "error", merr)
		case !changed:
			p.logger.InfoContext(ctx, "record not marked failed, already completed or missing", "record_id", recordID)
		default:
			p.logger.WarnContext(ctx, "record failed", "record_id", recordID, "entry_id", entry.ID, "cause", cause)
		}
	}

	p.alerts.NotifyDeadLetter(ctx, failurenotifier.PayloadFromEntry(entry, cause, err))
}

func (p *Pipeline) resolve(ctx context.Context, entry *model.QueueEntry) (jobInput, error) {
	payload, err := model.DecodeEntryPayload(entry.Payload)
	if err != nil {
		return jobInput{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid entry payload")
	}
	recordID := payload.RecordID
	if recordID == "" {
		recordID = entryRecordID(entry)
	}
	if recordID == "" {
		return jobInput{}, apperrors.Validation("entry has no record id")
	}

	rec, err := p.records.GetByID(ctx, recordID)
	if errors.Is(err, data.ErrRecordNotFound) {
		return jobInput{}, apperrors.NotFoundf("job record %s not found", recordID)
	}
	if err != nil {
		return jobInput{}, apperrors.Persistence(err, "load job record")
	}

	in := jobInput{record: rec, query: payload.Query, userEmail: payload.UserEmail}
	if in.query == "" || in.userEmail == "" {
		stored, err := entryPayloadFromRecord(rec)
		if err != nil {
			return jobInput{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid record payload")
		}
		if in.query == "" {
			in.query = stored.Query
		}
		if in.userEmail == "" {
			in.userEmail = stored.UserEmail
		}
	}
	return in, nil
}

func (p *Pipeline) search(ctx context.Context, jobType model.JobType, query string) (json.RawMessage, error) {
	provider := p.providers[jobType]
	if provider == nil {
		return nil, apperrors.Processor(fmt.Errorf("no provider for %s", jobType), "search")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validation("query is required")
	}
	result, err := provider.Search(ctx, query)
	if err != nil {
		if apperrors.GetCode(err) == "" {
			err = apperrors.Processor(err, "search "+string(jobType))
		}
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) runNews(ctx context.Context) (*model.NewsResult, error) {
	if p.news == nil {
		return nil, apperrors.Processor(errors.New("news processor not configured"), "news")
	}
	return p.news.Process(ctx)
}

// storeAnalysis creates the NewsAnalysis row once the record is completed. A URL analysed before
// is a no-op. Failures are logged: the job result is already durable.
func (p *Pipeline) storeAnalysis(ctx context.Context, recordID string, res *model.NewsResult) {
	url := res.Article.URL
	defer func() {
		if err := p.cache.MarkSeen(ctx, url); err != nil {
			p.logger.WarnContext(ctx, "mark article seen failed", "url", url, "error", err)
		}
	}()
	if p.analyses == nil {
		return
	}

	exists, err := p.analyses.ExistsByURL(ctx, url)
	if err != nil {
		p.logger.ErrorContext(ctx, "check news analysis failed", "url", url, "record_id", recordID, "error", err)
		return
	}
	if exists {
		p.logger.InfoContext(ctx, "article already analysed", "url", url, "record_id", recordID)
		return
	}

	id := recordID
	_, err = p.analyses.Create(ctx, &model.CreateNewsAnalysisRequest{
		Article:  res.Article,
		AIText:   res.AIAnalysis.RawJSONText,
		RecordID: &id,
	})
	switch {
	case apperrors.IsConflict(err):
		p.logger.InfoContext(ctx, "article analysed by a concurrent job", "url", url, "record_id", recordID)
	case err != nil:
		p.logger.ErrorContext(ctx, "create news analysis failed", "url", url, "record_id", recordID, "error", err)
	}
}

// appendHistory adds the completed job to the user's history and returns its correlation id,
// or "" when nothing was appended.
func (p *Pipeline) appendHistory(ctx context.Context, rec *model.JobRecord, in jobInput, result json.RawMessage) string {
	kind, ok := rec.Type.HistoryKind()
	if !ok || in.userEmail == "" {
		return ""
	}
	correlationID := p.newID()
	recordID := rec.ID
	_, err := p.history.Append(ctx, &model.AppendHistoryRequest{
		UserEmail:     in.userEmail,
		Kind:          kind,
		CorrelationID: &correlationID,
		RecordID:      &recordID,
		Query:         in.query,
		Result:        result,
		Status:        string(model.RecordStatusCompleted),
		EmailSent:     false,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "history append failed", "record_id", rec.ID, "error", err)
		return ""
	}
	return correlationID
}

func entryRecordID(entry *model.QueueEntry) string {
	if entry.RecordID != nil && *entry.RecordID != "" {
		return *entry.RecordID
	}
	payload, err := model.DecodeEntryPayload(entry.Payload)
	if err != nil {
		return ""
	}
	return payload.RecordID
}
