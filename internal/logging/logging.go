// Package logging wires up the zerolog logger shared across every
// collector process, following the contextual-field style the teacher
// uses in internal/riot: a logger held on the struct, never mutated
// globally once built.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger tagged with the given component name.
// level is one of "debug", "info", "warn", "error" (defaults to info
// on anything else); format "console" renders human-readable output,
// anything else (including empty) renders JSON.
func New(component, level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsedLevel = zerolog.InfoLevel
	}

	var writer = os.Stderr
	base := zerolog.New(writer).Level(parsedLevel)

	if strings.EqualFold(format, "console") {
		base = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}).Level(parsedLevel)
	}

	return base.With().Timestamp().Str("component", component).Logger()
}
