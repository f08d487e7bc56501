package config

import (
	"strings"
	"time"
)

// NewsConfig contains the hourly news trigger settings.
type NewsConfig struct {
	// Cron is a standard five-field cron spec.
	Cron string `env:"NEWS_CRON" envDefault:"0 * * * *"`

	// RunOnStartup submits one news job when the scheduler starts.
	RunOnStartup bool `env:"NEWS_RUN_ON_STARTUP" envDefault:"true"`

	// SeenCacheTTL is how long an analysed URL is remembered in Redis.
	SeenCacheTTL time.Duration `env:"NEWS_SEEN_CACHE_TTL" envDefault:"72h"`

	// FireLockTTL bounds the per-minute lock that keeps replicas from enqueuing twice.
	FireLockTTL time.Duration `env:"NEWS_FIRE_LOCK_TTL" envDefault:"2m"`
}

// Sanitize applies guardrails to news settings.
func (c *NewsConfig) Sanitize() {
	if c.Cron = strings.TrimSpace(c.Cron); c.Cron == "" {
		c.Cron = "0 * * * *"
	}
	if c.SeenCacheTTL <= 0 {
		c.SeenCacheTTL = 72 * time.Hour
	}
	if c.FireLockTTL < time.Minute {
		c.FireLockTTL = time.Minute
	}
}
