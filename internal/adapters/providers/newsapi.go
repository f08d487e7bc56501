package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

// ErrNoArticles is returned when the headline source has nothing to offer.
var ErrNoArticles = errors.New("no articles returned from NewsAPI")

// NewsAPIOptions configures a NewsAPIClient.
type NewsAPIOptions struct {
	Config     config.NewsAPIConfig
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewsAPIClient fetches top headlines.
type NewsAPIClient struct {
	cfg     config.NewsAPIConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewNewsAPIClient constructs a NewsAPIClient.
func NewNewsAPIClient(opts NewsAPIOptions) (*NewsAPIClient, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if cfg.BaseURL == "" {
		return nil, errors.New("newsapi base url is required")
	}
	logger := resolveLogger(opts.Logger, "newsapi_client")
	if cfg.APIKey == "" {
		logger.Warn("NEWS_API_KEY is not set; news jobs will fail")
	}
	return &NewsAPIClient{
		cfg:     cfg,
		http:    resolveHTTPClient(opts.HTTPClient),
		limiter: newLimiter(cfg.RatePerMinute),
		logger:  logger,
	}, nil
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

// TopHeadlines returns the current top headlines for the configured country.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context) ([]model.NewsArticle, error) {
	if c.cfg.APIKey == "" {
		return nil, apperrors.Processor(errMissingAPIKey, "fetch headlines")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("country", c.cfg.Country)
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	q.Set("apiKey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/top-headlines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := call(ctx, c.http, c.limiter, "newsapi", req)
	if err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Processor(fmt.Errorf("decode headlines: %w", err), "fetch headlines")
	}
	if resp.Status == "error" {
		return nil, apperrors.Processor(fmt.Errorf("%s: %s", resp.Code, resp.Message), "fetch headlines")
	}
	if len(resp.Articles) == 0 {
		return nil, apperrors.Processor(ErrNoArticles, "fetch headlines")
	}

	out := make([]model.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		out = append(out, model.NewsArticle{
			SourceName:  a.Source.Name,
			Author:      a.Author,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			URLToImage:  a.URLToImage,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		})
	}
	c.logger.DebugContext(ctx, "fetched headlines", "count", len(out))
	return out, nil
}
