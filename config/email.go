package config

import (
	"regexp"
	"strings"
	"time"
)

const defaultMailgunAPIVersion = "/v3"

// mailgunVersionSuffix matches the version segment the Mailgun client requires at the end of its base URL.
var mailgunVersionSuffix = regexp.MustCompile(`/v[1-9]$`)

// EmailConfig contains outcome email settings.
type EmailConfig struct {
	// Enabled turns Mailgun delivery on. When off every notification reports email_sent=false.
	Enabled     bool          `env:"EMAIL_ENABLED"         envDefault:"false"`
	Domain      string        `env:"MAILGUN_DOMAIN"`
	APIKey      string        `env:"MAILGUN_API_KEY"`
	APIBase     string        `env:"MAILGUN_API_BASE"      envDefault:"https://api.mailgun.net/v3"`
	From        string        `env:"EMAIL_FROM"            envDefault:"briefq <no-reply@briefq.local>"`
	SendTimeout time.Duration `env:"EMAIL_SEND_TIMEOUT"    envDefault:"10s"`

	// NewsDigestRecipient receives the hourly news email. Empty disables it.
	NewsDigestRecipient string `env:"NEWS_DIGEST_RECIPIENT"`

	// SummaryExpressions are JMESPath expressions tried in order to build the summary line.
	SummaryExpressions []string `env:"EMAIL_SUMMARY_EXPRESSIONS" envDefault:"results[0].snippet;results[0].title" envSeparator:";"`
}

// Sanitize applies guardrails to email settings.
func (c *EmailConfig) Sanitize() {
	c.Domain = strings.TrimSpace(c.Domain)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase != "" && !mailgunVersionSuffix.MatchString(c.APIBase) {
		c.APIBase += defaultMailgunAPIVersion
	}
	c.From = strings.TrimSpace(c.From)
	c.NewsDigestRecipient = strings.TrimSpace(c.NewsDigestRecipient)
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.Enabled && (c.Domain == "" || c.APIKey == "") {
		c.Enabled = false
	}
}
