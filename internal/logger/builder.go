package logger

import (
	"errors"
	"io"
	stdlog "log"

	appconfig "github.com/sitesentry/sitesentry/internal/config"
	appErrors "github.com/sitesentry/sitesentry/internal/errors"

	"github.com/rs/zerolog"
)

// Builder assembles a zerolog.Logger from a fluent chain of options,
// mirroring how config.Manager assembles a GlobalConfig: sensible
// defaults, then explicit overrides, validated before Build returns.
type Builder struct {
	config    LoggerConfig
	factory   *WriterFactory
	converter *ConfigConverter
}

func NewBuilder() *Builder {
	return &Builder{
		config:    DefaultLoggerConfig(),
		factory:   NewWriterFactory(),
		converter: NewConfigConverter(),
	}
}

// WithConfig applies an application LogConfig, overwriting any prior
// state on this builder.
func (b *Builder) WithConfig(cfg appconfig.LogConfig) *Builder {
	loggerConfig, _ := b.converter.ConvertConfig(cfg)
	b.config = loggerConfig
	return b
}

// Build validates the accumulated configuration and constructs the
// zerolog.Logger, wiring console and/or rotating-file writers.
func (b *Builder) Build() (zerolog.Logger, error) {
	if err := b.validateConfig(); err != nil {
		return zerolog.Logger{}, err
	}

	writers := b.createWriters()
	if len(writers) == 0 {
		return zerolog.Logger{}, errors.New("no output writers configured")
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	instance := zerolog.New(multiWriter).
		Level(b.config.Level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(b.config.Level)
	b.configureStandardLog(instance)

	return instance, nil
}

func (b *Builder) validateConfig() error {
	if b.config.EnableFile && b.config.FilePath == "" {
		return appErrors.NewValidationError("file_path", b.config.FilePath, "file path required when file logging enabled")
	}
	if b.config.MaxSizeMB <= 0 {
		return appErrors.NewValidationError("max_size_mb", b.config.MaxSizeMB, "max size must be positive")
	}
	return nil
}

func (b *Builder) createWriters() []io.Writer {
	var writers []io.Writer

	if b.config.EnableConsole {
		writers = append(writers, b.factory.CreateConsoleWriter(b.config.Format))
	}
	if b.config.EnableFile {
		writers = append(writers, b.factory.CreateFileWriter(b.config))
	}

	return writers
}

// configureStandardLog redirects the stdlib log package (used by a few
// third-party clients that don't take a zerolog.Logger) into the same
// sink.
func (b *Builder) configureStandardLog(logger zerolog.Logger) {
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)
}
