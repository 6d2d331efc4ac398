package logger

import (
	"github.com/sitesentry/sitesentry/internal/config"

	"github.com/rs/zerolog"
)

// ConfigConverter translates config.LogConfig, as loaded from YAML/JSON
// and hot-reloaded by config.Manager, into the LoggerConfig a Builder
// consumes.
type ConfigConverter struct{}

func NewConfigConverter() *ConfigConverter {
	return &ConfigConverter{}
}

// ConvertConfig converts application config to logger config. An
// unparseable level falls back to info rather than failing the build.
func (cc *ConfigConverter) ConvertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	format := parseFormat(cfg.LogFormat)

	return LoggerConfig{
		Level:         level,
		Format:        format,
		EnableConsole: cfg.EnableConsole,
		EnableFile:    cfg.EnableFile && cfg.LogFile != "",
		FilePath:      cfg.LogFile,
		MaxSizeMB:     cc.getMaxSizeMB(cfg.MaxLogSizeMB),
		MaxBackups:    cc.getMaxBackups(cfg.MaxLogBackups),
	}, nil
}

func (cc *ConfigConverter) getMaxSizeMB(maxSize int) int {
	if maxSize <= 0 {
		return 100
	}
	return maxSize
}

func (cc *ConfigConverter) getMaxBackups(maxBackups int) int {
	if maxBackups <= 0 {
		return 5
	}
	return maxBackups
}
