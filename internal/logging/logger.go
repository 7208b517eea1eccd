package logging

import (
	"io"
	"log/slog"
	"os"
)

// stderr receives the PG handler's own failures.
var stderr io.Writer = os.Stderr

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(NewJSONHandler(os.Stdout)))
}

func NewJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// Install makes stdout JSON plus the given sinks the default logger.
func Install(sinks ...slog.Handler) {
	handlers := append([]slog.Handler{NewJSONHandler(os.Stdout)}, sinks...)
	slog.SetDefault(slog.New(NewMultiHandler(handlers...)))
}
