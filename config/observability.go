package config

import (
	"strings"
	"time"
)

// ObservabilityConfig groups metrics and outbound notification configuration.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications NotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"pipeline"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// NotificationsConfig controls the draft-ready webhook.
type NotificationsConfig struct {
	Enabled    bool          `env:"NOTIFICATIONS_ENABLED"     envDefault:"false"`
	WebhookURL string        `env:"NOTIFICATIONS_WEBHOOK_URL"`
	Timeout    time.Duration `env:"NOTIFICATIONS_TIMEOUT"     envDefault:"10s"`

	// TemplateJSON optionally maps outgoing body fields to JMESPath
	// expressions evaluated against the notification document, e.g.
	// {"text":"title","user":"user_id"}. Empty means send the document
	// as-is.
	TemplateJSON string `env:"NOTIFICATIONS_TEMPLATE_JSON"`
}

// Sanitize normalises notification configuration values.
func (c *NotificationsConfig) Sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	if c.WebhookURL == "" {
		c.Enabled = false
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
