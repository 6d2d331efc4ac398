// Package config loads and validates the monitoring engine's
// configuration: scheduler, browser pool, detector, classifier,
// vectorizer, retry, and circuit-breaker settings, plus logging.
package config

import (
	"github.com/go-playground/validator/v10"
)

// GlobalConfig aggregates every configuration section the core reads.
type GlobalConfig struct {
	Scheduler  SchedulerConfig  `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`
	Browser    BrowserConfig    `json:"browser,omitempty" yaml:"browser,omitempty"`
	Detector   DetectorConfig   `json:"detector,omitempty" yaml:"detector,omitempty"`
	Classifier ClassifierConfig `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Vectorizer VectorizerConfig `json:"vectorizer,omitempty" yaml:"vectorizer,omitempty"`
	Hasher     HasherConfig     `json:"hasher,omitempty" yaml:"hasher,omitempty"`
	Retry      RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"`
	Breaker    BreakerConfig    `json:"breaker,omitempty" yaml:"breaker,omitempty"`
	Notifier   NotifierConfig   `json:"notifier,omitempty" yaml:"notifier,omitempty"`
	Log        LogConfig        `json:"log,omitempty" yaml:"log,omitempty"`
}

// NewDefaultGlobalConfig returns a GlobalConfig populated with each
// section's own defaults.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Scheduler:  NewDefaultSchedulerConfig(),
		Browser:    NewDefaultBrowserConfig(),
		Detector:   NewDefaultDetectorConfig(),
		Classifier: NewDefaultClassifierConfig(),
		Vectorizer: NewDefaultVectorizerConfig(),
		Hasher:     NewDefaultHasherConfig(),
		Retry:      NewDefaultRetryConfig(),
		Breaker:    NewDefaultBreakerConfig(),
		Notifier:   NewDefaultNotifierConfig(),
		Log:        NewDefaultLogConfig(),
	}
}

var validate = validator.New()

// Validate runs struct-tag validation across every section.
func (c *GlobalConfig) Validate() error {
	return validate.Struct(c)
}
