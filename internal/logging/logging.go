// Package logging configures the process-wide slog logger and request logging.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default logger. Development mode logs readable text at
// debug level. Otherwise text goes to stdout and JSON to stderr, so a log
// shipper can read stderr while operators tail stdout.
func Setup(devMode bool) {
	slog.SetDefault(New(devMode, os.Stdout, os.Stderr))
}

// New builds the logger Setup installs, writing to the given streams.
func New(devMode bool, text, structured io.Writer) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(text, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	return slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(text, opts),
		slog.NewJSONHandler(structured, opts),
	))
}
