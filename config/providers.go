package config

import (
	"strings"
	"time"
)

// ProvidersConfig contains credentials and endpoints of the external providers.
type ProvidersConfig struct {
	Perplexity PerplexityConfig
	Google     GoogleConfig
	NewsAPI    NewsAPIConfig
}

// Sanitize applies guardrails to every provider.
func (p *ProvidersConfig) Sanitize() {
	p.Perplexity.Sanitize()
	p.Google.Sanitize()
	p.NewsAPI.Sanitize()
}

// PerplexityConfig configures search and article analysis.
type PerplexityConfig struct {
	APIKey          string        `env:"PERPLEXITY_API_KEY"`
	BaseURL         string        `env:"PERPLEXITY_BASE_URL"          envDefault:"https://api.perplexity.ai"`
	Model           string        `env:"PERPLEXITY_MODEL"             envDefault:"sonar-pro"`
	SearchTimeout   time.Duration `env:"PERPLEXITY_SEARCH_TIMEOUT"    envDefault:"30s"`
	AnalysisTimeout time.Duration `env:"PERPLEXITY_ANALYSIS_TIMEOUT"  envDefault:"15s"`
	RatePerMinute   int           `env:"PERPLEXITY_RATE_PER_MINUTE"   envDefault:"60"`
}

// Sanitize applies guardrails to Perplexity settings.
func (c *PerplexityConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Model = strings.TrimSpace(c.Model); c.Model == "" {
		c.Model = "sonar-pro"
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 30 * time.Second
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = 15 * time.Second
	}
	if c.RatePerMinute < 0 {
		c.RatePerMinute = 0
	}
}

// GoogleConfig configures the Custom Search JSON API.
type GoogleConfig struct {
	APIKey         string        `env:"GOOGLE_API_KEY"`
	SearchEngineID string        `env:"GOOGLE_SEARCH_ENGINE_ID"`
	BaseURL        string        `env:"GOOGLE_BASE_URL"          envDefault:"https://www.googleapis.com"`
	Timeout        time.Duration `env:"GOOGLE_TIMEOUT"           envDefault:"20s"`
}

// Sanitize applies guardrails to Google settings.
func (c *GoogleConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.SearchEngineID = strings.TrimSpace(c.SearchEngineID)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
}

// NewsAPIConfig configures the headline source.
type NewsAPIConfig struct {
	APIKey        string        `env:"NEWS_API_KEY"`
	BaseURL       string        `env:"NEWS_API_BASE_URL"        envDefault:"https://newsapi.org"`
	Country       string        `env:"NEWS_API_COUNTRY"         envDefault:"us"`
	PageSize      int           `env:"NEWS_API_PAGE_SIZE"       envDefault:"100"`
	Timeout       time.Duration `env:"NEWS_API_TIMEOUT"         envDefault:"20s"`
	RatePerMinute int           `env:"NEWS_API_RATE_PER_MINUTE" envDefault:"10"`
}

// Sanitize applies guardrails to NewsAPI settings.
func (c *NewsAPIConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Country = strings.ToLower(strings.TrimSpace(c.Country)); c.Country == "" {
		c.Country = "us"
	}
	if c.PageSize < 1 {
		c.PageSize = 1
	}
	if c.PageSize > 100 {
		c.PageSize = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.RatePerMinute < 0 {
		c.RatePerMinute = 0
	}
}
