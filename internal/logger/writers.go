package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// WriterStrategy builds an io.Writer for a specific log output format.
type WriterStrategy interface {
	CreateWriter(output io.Writer) io.Writer
}

// JSONWriterStrategy passes the output through unchanged; zerolog emits
// JSON by default.
type JSONWriterStrategy struct{}

func (jws *JSONWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return output
}

// ConsoleWriterStrategy wraps output in zerolog's human-readable console
// formatter. NoColor covers both the FormatConsole and FormatText cases:
// the latter is the same layout with ANSI codes stripped, for
// destinations like log files where they'd just be noise.
type ConsoleWriterStrategy struct {
	NoColor bool
}

func (cws *ConsoleWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
		NoColor:    cws.NoColor,
	}
}
