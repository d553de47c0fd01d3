// Package logger builds the structured diagnostic logger for the
// phonebook commands. The audit trail is a separate artifact and does
// not go through this logger.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger at the given level. Unknown levels
// fall back to info.
func New(level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "phonebook").
		Logger()
}
