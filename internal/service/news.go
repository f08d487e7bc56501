package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

// NewsProcessorOptions groups dependencies for NewsProcessor.
type NewsProcessorOptions struct {
	Headlines core.HeadlineSource         // Required
	Analyzer  core.ArticleAnalyzer        // Optional; without it the analysis is empty
	Analyses  core.NewsAnalysisRepository // Optional; used to skip already analysed articles
	Cache     *core.NewsCache             // Optional
	Logger    *slog.Logger
}

// NewsProcessor picks a headline that has not been analysed yet and runs the AI analysis on it.
type NewsProcessor struct {
	headlines core.HeadlineSource
	analyzer  core.ArticleAnalyzer
	analyses  core.NewsAnalysisRepository
	cache     *core.NewsCache
	logger    *slog.Logger
}

// NewNewsProcessor constructs a NewsProcessor.
func NewNewsProcessor(opts NewsProcessorOptions) (*NewsProcessor, error) {
	if opts.Headlines == nil {
		return nil, errors.New("HeadlineSource is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsProcessor{
		headlines: opts.Headlines,
		analyzer:  opts.Analyzer,
		analyses:  opts.Analyses,
		cache:     opts.Cache,
		logger:    logger.With("component", "news_processor"),
	}, nil
}

// Process fetches the current headlines and analyses the first article not seen before.
// When every article was already processed the first one is reused.
func (p *NewsProcessor) Process(ctx context.Context) (*model.NewsResult, error) {
	articles, err := p.headlines.TopHeadlines(ctx)
	if err != nil {
		if apperrors.GetCode(err) == "" {
			err = apperrors.Processor(err, "fetch headlines")
		}
		return nil, err
	}
	if len(articles) == 0 {
		return nil, apperrors.Processor(errors.New("no articles returned"), "fetch headlines")
	}

	article, fresh := p.pick(ctx, articles)
	if !fresh {
		p.logger.InfoContext(ctx, "all headlines already processed, reusing latest", "url", article.URL)
	}

	res := &model.NewsResult{Article: article, Duplicate: !fresh, StatusFlag: true}
	if p.analyzer != nil {
		text, err := p.analyzer.Analyze(ctx, article)
		if err != nil {
			p.logger.WarnContext(ctx, "article analysis failed", "url", article.URL, "error", err)
		}
		res.AIAnalysis.RawJSONText = text
	}
	return res, nil
}

func (p *NewsProcessor) pick(ctx context.Context, articles []model.NewsArticle) (model.NewsArticle, bool) {
	for _, a := range articles {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		if p.seen(ctx, a.URL) {
			continue
		}
		return a, true
	}
	return articles[0], false
}

// seen checks the Redis cache first, then the analysis store. Lookup errors count as unseen.
func (p *NewsProcessor) seen(ctx context.Context, url string) bool {
	if ok, err := p.cache.Seen(ctx, url); err != nil {
		p.logger.WarnContext(ctx, "seen cache lookup failed", "url", url, "error", err)
	} else if ok {
		return true
	}
	if p.analyses == nil {
		return false
	}
	exists, err := p.analyses.ExistsByURL(ctx, url)
	if err != nil {
		p.logger.WarnContext(ctx, "analysis lookup failed", "url", url, "error", err)
		return false
	}
	return exists
}
