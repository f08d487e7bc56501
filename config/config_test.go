package config

import (
	"os"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"

	domainjob "github.com/briefq/briefq/internal/domain/job"
	"github.com/briefq/briefq/internal/domain/model"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:  "workers",
			input: "search-worker,google-search-worker,news-worker",
			expected: map[ServiceMode]bool{
				ServiceModeSearchWorker:       true,
				ServiceModeGoogleSearchWorker: true,
				ServiceModeNewsWorker:         true,
			},
		},
		{
			name:  "services with spaces",
			input: " http , news-scheduler , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:          true,
				ServiceModeNewsScheduler: true,
				ServiceModeReaper:        true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,reaper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,rules-engine",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name              string
		services          string
		expectedHTTP      bool
		expectedReaper    bool
		expectedScheduler bool
	}{
		{
			name:           "http only",
			services:       "http",
			expectedHTTP:   true,
			expectedReaper: false,
		},
		{
			name:              "scheduler and reaper",
			services:          "news-scheduler,reaper",
			expectedReaper:    true,
			expectedScheduler: true,
		},
		{
			name:     "invalid configuration disables everything",
			services: "invalid-service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}

			if cfg.IsHTTPServerEnabled() != tt.expectedHTTP {
				t.Errorf("IsHTTPServerEnabled(): expected %v, got %v", tt.expectedHTTP, cfg.IsHTTPServerEnabled())
			}
			if cfg.IsReaperEnabled() != tt.expectedReaper {
				t.Errorf("IsReaperEnabled(): expected %v, got %v", tt.expectedReaper, cfg.IsReaperEnabled())
			}
			if cfg.IsNewsSchedulerEnabled() != tt.expectedScheduler {
				t.Errorf("IsNewsSchedulerEnabled(): expected %v, got %v", tt.expectedScheduler, cfg.IsNewsSchedulerEnabled())
			}
		})
	}
}

func TestWorkerMode(t *testing.T) {
	want := map[model.QueueName]ServiceMode{
		model.QueueMain:         ServiceModeSearchWorker,
		model.QueueGoogleSearch: ServiceModeGoogleSearchWorker,
		model.QueueNews:         ServiceModeNewsWorker,
	}
	for q, mode := range want {
		if got := WorkerMode(q); got != mode {
			t.Errorf("WorkerMode(%s): expected %s, got %s", q, mode, got)
		}
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":5000" {
		t.Errorf("expected default addr :5000, got %q", cfg.HTTP.Addr)
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		t.Fatalf("default services: %v", err)
	}
	if len(services) != len(ValidServiceModes()) {
		t.Errorf("expected every service enabled by default, got %v", services)
	}

	if cfg.Queues.Search.Concurrency != DefaultSearchConcurrency ||
		cfg.Queues.Google.Concurrency != DefaultGoogleConcurrency ||
		cfg.Queues.News.Concurrency != DefaultNewsConcurrency {
		t.Errorf("unexpected default concurrency: %+v", cfg.Queues)
	}
	news := cfg.Queues.For(model.QueueNews)
	if news.Lease != 60*time.Second || news.MaxAttempts != 3 || news.MaxStalled != 0 {
		t.Errorf("unexpected news runner defaults: %+v", news)
	}
	want := domainjob.RetryPolicy{Kind: domainjob.BackoffExponential, Delay: 5 * time.Second, Max: 5 * time.Minute}
	if got := news.RetryPolicy(); got != want {
		t.Errorf("expected retry policy %+v, got %+v", want, got)
	}

	if cfg.Providers.Perplexity.Model != "sonar-pro" {
		t.Errorf("expected sonar-pro model, got %q", cfg.Providers.Perplexity.Model)
	}
	if cfg.Providers.NewsAPI.Country != "us" || cfg.Providers.NewsAPI.PageSize != 100 {
		t.Errorf("unexpected newsapi defaults: %+v", cfg.Providers.NewsAPI)
	}
	if cfg.News.Cron != "0 * * * *" || !cfg.News.RunOnStartup {
		t.Errorf("unexpected news defaults: %+v", cfg.News)
	}
	if cfg.Postgres.MaxOpenConns != 25 || cfg.Postgres.MaxIdleConns != 5 || cfg.Postgres.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("unexpected pool defaults: %+v", cfg.Postgres)
	}
	if cfg.Redis.URI != "localhost:6379" || cfg.Redis.KeyPrefix != "briefq:" {
		t.Errorf("unexpected redis defaults: %+v", cfg.Redis)
	}
	if cfg.Email.Enabled {
		t.Error("email must stay disabled without mailgun credentials")
	}
	if !reflect.DeepEqual(cfg.Email.SummaryExpressions, []string{"results[0].snippet", "results[0].title"}) {
		t.Errorf("unexpected summary expressions: %v", cfg.Email.SummaryExpressions)
	}
}

func TestAppConfig_ParseQueueEnv(t *testing.T) {
	t.Setenv("SEARCH_WORKER_CONCURRENCY", "8")
	t.Setenv("GOOGLE_WORKER_BACKOFF", "fixed")
	t.Setenv("GOOGLE_WORKER_BACKOFF_DELAY", "2s")
	t.Setenv("NEWS_WORKER_LEASE", "2m")
	t.Setenv("NEWS_WORKER_MAX_STALLED", "2")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Queues.Search.Concurrency != 8 {
		t.Errorf("expected search concurrency 8, got %d", cfg.Queues.Search.Concurrency)
	}
	if cfg.Queues.Google.Backoff != domainjob.BackoffFixed || cfg.Queues.Google.BackoffDelay != 2*time.Second {
		t.Errorf("unexpected google backoff: %+v", cfg.Queues.Google)
	}
	if cfg.Queues.News.Lease != 2*time.Minute || cfg.Queues.News.MaxStalled != 2 {
		t.Errorf("unexpected news runner: %+v", cfg.Queues.News)
	}
}

func TestAppConfig_InvalidBackoff(t *testing.T) {
	t.Setenv("SEARCH_WORKER_BACKOFF", "linear")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected parse error for unknown backoff")
	}
}

func TestRunnerConfig_Sanitize(t *testing.T) {
	r := RunnerConfig{Lease: time.Second, MaxAttempts: 0, MaxStalled: -1, BackoffDelay: 10 * time.Second, BackoffMax: time.Second}
	r.sanitize(4)

	if r.Concurrency != 4 {
		t.Errorf("expected default concurrency, got %d", r.Concurrency)
	}
	if r.Lease != 5*time.Second {
		t.Errorf("expected lease floor, got %v", r.Lease)
	}
	if r.MaxAttempts != 1 || r.MaxStalled != 0 {
		t.Errorf("unexpected budgets: attempts=%d stalled=%d", r.MaxAttempts, r.MaxStalled)
	}
	if r.Backoff != domainjob.BackoffExponential {
		t.Errorf("expected exponential fallback, got %q", r.Backoff)
	}
	if r.BackoffMax != r.BackoffDelay {
		t.Errorf("expected max raised to delay, got %v", r.BackoffMax)
	}
}

func TestReaperConfig_Sanitize(t *testing.T) {
	r := ReaperConfig{Interval: time.Second, BatchSize: 50000}
	r.Sanitize()

	if r.Interval != time.Minute {
		t.Errorf("expected interval floor, got %v", r.Interval)
	}
	if r.PendingMaxAge != 0 || r.CompletedMaxAge != time.Hour || r.FailedMaxAge != time.Hour {
		t.Errorf("unexpected age floors: %+v", r)
	}
	if r.BatchSize != 10000 {
		t.Errorf("expected batch size cap, got %d", r.BatchSize)
	}
}

func TestReaperConfig_PendingMaxAge(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"disabled", 0, 0},
		{"negative disables", -time.Hour, 0},
		{"floored", time.Minute, 5 * time.Minute},
		{"kept", 48 * time.Hour, 48 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ReaperConfig{PendingMaxAge: tt.in}
			r.Sanitize()
			if r.PendingMaxAge != tt.want {
				t.Errorf("PendingMaxAge = %v, want %v", r.PendingMaxAge, tt.want)
			}
		})
	}
}

func TestEmailConfig_Sanitize(t *testing.T) {
	cfg := EmailConfig{Enabled: true, Domain: " mg.example.com ", APIBase: "https://api.eu.mailgun.net/"}
	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatal("expected email disabled without api key")
	}
	if cfg.Domain != "mg.example.com" || cfg.APIBase != "https://api.eu.mailgun.net/v3" {
		t.Errorf("expected trimmed values, got %+v", cfg)
	}
	if cfg.SendTimeout != 10*time.Second {
		t.Errorf("expected default send timeout, got %v", cfg.SendTimeout)
	}

	cfg = EmailConfig{Enabled: true, Domain: "mg.example.com", APIKey: "key"}
	cfg.Sanitize()
	if !cfg.Enabled {
		t.Fatal("expected email to stay enabled with credentials")
	}
}

func TestEmailConfig_APIBaseVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "https://api.mailgun.net", want: "https://api.mailgun.net/v3"},
		{in: "https://api.mailgun.net/v3", want: "https://api.mailgun.net/v3"},
		{in: "https://api.mailgun.net/v4/", want: "https://api.mailgun.net/v4"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		cfg := EmailConfig{APIBase: tt.in}
		cfg.Sanitize()
		if cfg.APIBase != tt.want {
			t.Errorf("Sanitize(%q) APIBase = %q, want %q", tt.in, cfg.APIBase, tt.want)
		}
	}
}

func TestEmailConfig_DefaultAPIBase(t *testing.T) {
	t.Setenv("MAILGUN_API_BASE", "")
	if err := os.Unsetenv("MAILGUN_API_BASE"); err != nil {
		t.Fatal(err)
	}
	var cfg EmailConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.APIBase != "https://api.mailgun.net/v3" {
		t.Errorf("default APIBase = %q", cfg.APIBase)
	}
}

func TestDBConfig_Sanitize(t *testing.T) {
	cfg := DBConfig{MaxOpenConns: 0, MaxIdleConns: 40, ConnMaxLifetime: -time.Second}
	cfg.Sanitize()

	if cfg.MaxOpenConns != 25 {
		t.Errorf("expected default max open conns, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 25 {
		t.Errorf("expected idle conns capped at max open, got %d", cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("expected default lifetime, got %s", cfg.ConnMaxLifetime)
	}

	keep := DBConfig{MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: time.Minute}
	keep.Sanitize()
	if keep.MaxOpenConns != 10 || keep.MaxIdleConns != 2 || keep.ConnMaxLifetime != time.Minute {
		t.Errorf("explicit pool settings changed: %+v", keep)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{Addr: " ", BaseURL: "https://briefq.example.com/", CORSAllowedOrigins: []string{" https://app.example.com/ ", ""}}
	cfg.Sanitize()

	if cfg.Addr != ":5000" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.BaseURL != "https://briefq.example.com" {
		t.Errorf("expected trailing slash removed, got %q", cfg.BaseURL)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"https://app.example.com"}) {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestObservabilityConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityConfig{
		Metrics: ObservabilityMetricsConfig{Enabled: true, Namespace: " "},
		Alerts: ObservabilityAlertsConfig{
			RetryLimit: -1,
			Slack:      SlackAlertsConfig{WebhookURL: " ", Username: ""},
		},
	}
	cfg.Sanitize()

	if cfg.Metrics.Namespace != "briefq" {
		t.Errorf("expected default namespace, got %q", cfg.Metrics.Namespace)
	}
	if cfg.Alerts.Timeout != 5*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Alerts.Timeout)
	}
	if cfg.Alerts.RetryLimit != 0 {
		t.Errorf("expected retry limit clamped, got %d", cfg.Alerts.RetryLimit)
	}
	if cfg.Alerts.Slack.Enabled() {
		t.Error("expected slack disabled without a webhook url")
	}
	if cfg.Alerts.Slack.Username != "briefq" {
		t.Errorf("expected default username, got %q", cfg.Alerts.Slack.Username)
	}
}
