package config

import "time"

// NotifierConfig controls the alert delivery port. Delivery is
// best-effort: the core never blocks on it.
type NotifierConfig struct {
	DiscordWebhookURL string        `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	TimeoutSeconds    int           `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	RetryAttempts     int           `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty" validate:"omitempty,min=0"`
	RetryDelay        time.Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
}

func NewDefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		TimeoutSeconds: 20,
		RetryAttempts:  2,
		RetryDelay:     5 * time.Second,
	}
}
