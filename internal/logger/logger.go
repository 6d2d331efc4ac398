// Package logger builds the process-wide zerolog.Logger from
// config.LogConfig, matching the console/file writer split and
// lumberjack rotation the rest of the ambient stack uses.
package logger

import (
	"github.com/sitesentry/sitesentry/internal/config"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger from the given configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewBuilder().WithConfig(cfg).Build()
}
