package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sitesentry/sitesentry/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultConfigProducesConsoleLogger(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.EnableFile = false

	log, err := New(cfg)
	require.NoError(t, err)

	require.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_FileLoggingWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultLogConfig()
	cfg.EnableFile = true
	cfg.EnableConsole = false
	cfg.LogFile = filepath.Join(dir, "sitesentry.log")

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info().Msg("hello")

	_, statErr := os.Stat(cfg.LogFile)
	assert.NoError(t, statErr)
}

func TestBuilder_RejectsFileLoggingWithoutPath(t *testing.T) {
	b := NewBuilder()
	b.config.EnableFile = true
	b.config.FilePath = ""

	_, err := b.Build()
	assert.Error(t, err)
}

func TestConvertConfig_FallsBackOnInvalidLevel(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "not-a-level"

	converted, err := NewConfigConverter().ConvertConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, converted.Level)
}
