package config

// LogConfig controls the zerolog + lumberjack logging pipeline.
type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=json console"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
	EnableConsole bool   `json:"enable_console" yaml:"enable_console"`
	EnableFile    bool   `json:"enable_file" yaml:"enable_file"`
}

func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       "logs/sitesentry.log",
		LogFormat:     "console",
		LogLevel:      "info",
		MaxLogBackups: 5,
		MaxLogSizeMB:  100,
		EnableConsole: true,
		EnableFile:    true,
	}
}
