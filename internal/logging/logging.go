// Package logging builds the process-wide zerolog logger. Components never
// reach for a package-level global; the constructed Logger is threaded by
// value into each collaborator's constructor.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level ("debug", "info", "warn",
// "error"; defaults to "info" on an unrecognized value). format selects
// "json" (the default, suited to container logs) or "console" (human
// readable, for local development).
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var writer interface {
		Write(p []byte) (int, error)
	} = os.Stdout
	if strings.EqualFold(format, "console") {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(writer).With().Timestamp().Logger()
}
