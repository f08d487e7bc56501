package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 350
)

const analysisSystemPrompt = `You are an AI that analyzes news articles and returns JSON-like text.

Rules:
- Start with "{" and end with "}".
- Follow this shape:
{
  "impactDescription": "5-6 sentences explaining the overall impact of this news for a general audience.",
  "quickActions": [
    {
      "title": "Short action title.",
      "description": "1-2 sentences with a practical next step or way to think about this news."
    }
  ]
}
- quickActions should contain 3-5 items for different audiences (general readers, investors, policy watchers, etc.).
- Do NOT wrap the output in markdown code fences.`

// PerplexityOptions configures a PerplexityClient.
type PerplexityOptions struct {
	Config     config.PerplexityConfig
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// PerplexityClient runs Perplexity searches and article analyses.
type PerplexityClient struct {
	cfg     config.PerplexityConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewPerplexityClient constructs a PerplexityClient.
func NewPerplexityClient(opts PerplexityOptions) (*PerplexityClient, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if cfg.BaseURL == "" {
		return nil, errors.New("perplexity base url is required")
	}
	logger := resolveLogger(opts.Logger, "perplexity_client")
	if cfg.APIKey == "" {
		logger.Warn("PERPLEXITY_API_KEY is not set; search and analysis calls will fail")
	}
	return &PerplexityClient{
		cfg:     cfg,
		http:    resolveHTTPClient(opts.HTTPClient),
		limiter: newLimiter(cfg.RatePerMinute),
		logger:  logger,
	}, nil
}

// Search posts query to the search endpoint and returns the response body as the result.
func (c *PerplexityClient) Search(ctx context.Context, query string) (json.RawMessage, error) {
	if c.cfg.APIKey == "" {
		return nil, apperrors.Processor(errMissingAPIKey, "perplexity search")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SearchTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, "/search", map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	body, err := call(ctx, c.http, c.limiter, "perplexity", req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, apperrors.Processor(errors.New("response is not valid JSON"), "perplexity search")
	}
	return json.RawMessage(body), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze asks the chat model for an impact description and quick actions.
// The text is returned as produced, minus any markdown fence. On failure the text is empty.
func (c *PerplexityClient) Analyze(ctx context.Context, article model.NewsArticle) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperrors.Processor(errMissingAPIKey, "perplexity analysis")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AnalysisTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, "/chat/completions", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: analysisUserPrompt(article)},
		},
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		return "", err
	}
	body, err := call(ctx, c.http, c.limiter, "perplexity", req)
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.Processor(fmt.Errorf("decode chat response: %w", err), "perplexity analysis")
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return stripFence(out.Choices[0].Message.Content), nil
}

func (c *PerplexityClient) newRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func analysisUserPrompt(a model.NewsArticle) string {
	var b strings.Builder
	b.WriteString("Here is a news article. Analyze it and follow the JSON shape from the system message.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	fmt.Fprintf(&b, "Description: %s\n", a.Description)
	fmt.Fprintf(&b, "Source: %s\n", a.SourceName)
	fmt.Fprintf(&b, "URL: %s\n", a.URL)
	fmt.Fprintf(&b, "PublishedAt: %s\n", a.PublishedAt)
	fmt.Fprintf(&b, "ContentSnippet: %s", a.Content)
	return b.String()
}

// stripFence trims a fenced reply down to its outermost braces.
func stripFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first == -1 || last < first {
		return content
	}
	return content[first : last+1]
}
