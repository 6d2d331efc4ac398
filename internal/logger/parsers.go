package logger

import (
	"strings"

	"github.com/sitesentry/sitesentry/internal/errors"

	"github.com/rs/zerolog"
)

// parseLevel parses a configured log level string into a zerolog.Level.
func parseLevel(levelStr string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel, errors.WrapError(err, "invalid log level")
	}
	return level, nil
}

// parseFormat parses a configured format string into a LogFormat,
// defaulting to console output on an unrecognized value.
func parseFormat(formatStr string) LogFormat {
	switch strings.ToLower(formatStr) {
	case "json":
		return FormatJSON
	case "console":
		return FormatConsole
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
