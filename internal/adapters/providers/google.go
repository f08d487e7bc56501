package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/briefq/briefq/config"
	apperrors "github.com/briefq/briefq/internal/errors"
)

const googleResultCount = 10

// GoogleOptions configures a GoogleClient.
type GoogleOptions struct {
	Config     config.GoogleConfig
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GoogleClient queries the Custom Search JSON API.
type GoogleClient struct {
	cfg    config.GoogleConfig
	http   *http.Client
	logger *slog.Logger
}

// NewGoogleClient constructs a GoogleClient.
func NewGoogleClient(opts GoogleOptions) (*GoogleClient, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if cfg.BaseURL == "" {
		return nil, errors.New("google base url is required")
	}
	logger := resolveLogger(opts.Logger, "google_client")
	if cfg.APIKey == "" || cfg.SearchEngineID == "" {
		logger.Warn("GOOGLE_API_KEY or GOOGLE_SEARCH_ENGINE_ID is not set; google searches will fail")
	}
	return &GoogleClient{cfg: cfg, http: resolveHTTPClient(opts.HTTPClient), logger: logger}, nil
}

// GoogleResult is one simplified search hit.
type GoogleResult struct {
	Title        string          `json:"title,omitempty"`
	Link         string          `json:"link,omitempty"`
	Snippet      string          `json:"snippet,omitempty"`
	HTMLTitle    string          `json:"htmlTitle,omitempty"`
	HTMLSnippet  string          `json:"htmlSnippet,omitempty"`
	DisplayLink  string          `json:"displayLink,omitempty"`
	FormattedURL string          `json:"formattedUrl,omitempty"`
	Pagemap      json.RawMessage `json:"pagemap,omitempty"`
}

type googleResponse struct {
	Items []GoogleResult `json:"items"`
}

// Search runs query and returns {"results": [...]} with at most ten hits.
func (c *GoogleClient) Search(ctx context.Context, query string) (json.RawMessage, error) {
	if c.cfg.APIKey == "" || c.cfg.SearchEngineID == "" {
		return nil, apperrors.Processor(errMissingAPIKey, "google search")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("cx", c.cfg.SearchEngineID)
	q.Set("q", query)
	q.Set("num", fmt.Sprint(googleResultCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/customsearch/v1?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := call(ctx, c.http, nil, "google", req)
	if err != nil {
		return nil, err
	}

	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Processor(fmt.Errorf("decode search response: %w", err), "google search")
	}
	results := resp.Items
	if results == nil {
		results = []GoogleResult{}
	}
	out, err := json.Marshal(struct {
		Results []GoogleResult `json:"results"`
	}{Results: results})
	if err != nil {
		return nil, fmt.Errorf("encode search result: %w", err)
	}
	return out, nil
}
