/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package logging builds the zerolog loggers used across docstore.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options selects the level, format and destination of a logger.
type Options struct {
	// Level is a zerolog level name; unknown or empty values mean info.
	Level string
	// Format is "json" (default) or "console".
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// New builds a timestamped logger.
func New(opts Options) zerolog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
