package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production emits JSON to stdout;
// anything else gets the human-readable console writer.
func New(environment string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment == "production" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}
