package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger. Production runs at info level; everything
// else logs debug so local runs show store and ledger decisions.
func New(format, environment string) *slog.Logger {
	return NewWithWriter(os.Stdout, format, environment)
}

// NewWithWriter is New with an explicit sink, used by tests.
func NewWithWriter(w io.Writer, format, environment string) *slog.Logger {
	level := slog.LevelDebug
	if environment == "production" {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", "kycflow")
}
