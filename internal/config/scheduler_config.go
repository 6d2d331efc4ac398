package config

// SchedulerConfig controls the job scheduler's concurrency, misfire, and
// SQLite job-state store.
type SchedulerConfig struct {
	MaxConcurrentJobs   int    `json:"max_concurrent_jobs,omitempty" yaml:"max_concurrent_jobs,omitempty" validate:"omitempty,min=1"`
	MisfireGraceSeconds int    `json:"misfire_grace_seconds,omitempty" yaml:"misfire_grace_seconds,omitempty" validate:"omitempty,min=0"`
	SQLiteDBPath        string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty"`
}

func NewDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs:   3,
		MisfireGraceSeconds: 30,
		SQLiteDBPath:        "data/scheduler.db",
	}
}

// BrowserConfig controls the headless-browser pool.
type BrowserConfig struct {
	PoolSize             int      `json:"pool_size,omitempty" yaml:"pool_size,omitempty" validate:"omitempty,min=1"`
	NavigationTimeoutSecs int     `json:"navigation_timeout_seconds,omitempty" yaml:"navigation_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	BlockedResourceTypes []string `json:"blocked_resource_types,omitempty" yaml:"blocked_resource_types,omitempty"`
	UserAgents           []string `json:"user_agents,omitempty" yaml:"user_agents,omitempty"`
}

func NewDefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		PoolSize:              3,
		NavigationTimeoutSecs: 30,
		BlockedResourceTypes:  []string{"image", "media"},
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		},
	}
}

// DetectorConfig controls the change detector's thresholds. All
// three are per-site overridable via models.Site.
type DetectorConfig struct {
	SimilarityThreshold     float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	StructuralThreshold     float64 `json:"structural_threshold,omitempty" yaml:"structural_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	CriticalChangeThreshold float64 `json:"critical_change_threshold,omitempty" yaml:"critical_change_threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

func NewDefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SimilarityThreshold:     0.85,
		StructuralThreshold:     0.90,
		CriticalChangeThreshold: 0.50,
	}
}

// RetryConfig controls the scheduler's retry/backoff policy.
type RetryConfig struct {
	MaxAttempts     int     `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"omitempty,min=0"`
	InitialDelayMS  int     `json:"initial_delay_ms,omitempty" yaml:"initial_delay_ms,omitempty" validate:"omitempty,min=1"`
	MaxDelayMS      int     `json:"max_delay_ms,omitempty" yaml:"max_delay_ms,omitempty" validate:"omitempty,min=1"`
	ExponentialBase float64 `json:"exponential_base,omitempty" yaml:"exponential_base,omitempty" validate:"omitempty,min=1"`
	Jitter          bool    `json:"jitter" yaml:"jitter"`
}

func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelayMS:  1000,
		MaxDelayMS:      60000,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// BreakerConfig controls the per-site circuit breaker.
type BreakerConfig struct {
	FailureThreshold      int `json:"failure_threshold,omitempty" yaml:"failure_threshold,omitempty" validate:"omitempty,min=1"`
	RecoveryTimeoutSeconds int `json:"recovery_timeout_seconds,omitempty" yaml:"recovery_timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:       5,
		RecoveryTimeoutSeconds: 60,
	}
}
