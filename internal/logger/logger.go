// Package logger configures the process-wide slog default.
package logger

import (
	"log/slog"
	"os"
)

// Initialize sets the default logger. Warnings and errors are always
// shown; verbose raises the floor to info and debug to debug with
// source locations.
func Initialize(debug, verbose bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	} else if verbose {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}
