package config

import (
	"strings"
	"time"
)

const defaultObservabilityName = "briefq"

// ObservabilityConfig groups configuration that controls metrics and alert fan-out.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
	Alerts  ObservabilityAlertsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Alerts.Sanitize()
}

// ObservabilityMetricsConfig controls the Prometheus registry served on /metrics.
type ObservabilityMetricsConfig struct {
	Enabled   bool   `env:"OBSERVABILITY_METRICS_ENABLED"   envDefault:"true"`
	Namespace string `env:"OBSERVABILITY_METRICS_NAMESPACE" envDefault:"briefq"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.Namespace = strings.TrimSpace(c.Namespace)
	if c.Namespace == "" {
		c.Namespace = defaultObservabilityName
	}
}

// ObservabilityAlertsConfig controls dead-letter alerts.
type ObservabilityAlertsConfig struct {
	Timeout    time.Duration     `env:"OBSERVABILITY_ALERTS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int               `env:"OBSERVABILITY_ALERTS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackAlertsConfig `                                                       envPrefix:"OBSERVABILITY_ALERTS_SLACK_"`
}

// Sanitize normalises alert configuration values.
func (c *ObservabilityAlertsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	c.Slack.sanitize()
}

// SlackAlertsConfig controls Slack webhook fan-out. Alerts are sent when a webhook URL is set.
type SlackAlertsConfig struct {
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"briefq"`
}

// Enabled reports whether a webhook is configured.
func (c *SlackAlertsConfig) Enabled() bool {
	return c.WebhookURL != ""
}

func (c *SlackAlertsConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultObservabilityName
	}
}
