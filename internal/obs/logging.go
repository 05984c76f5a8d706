// Package obs contains logging and tracing setup shared by the service.
package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logger used across the service. It discards
// output until InitLogger is called so packages can log from tests.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// InitLogger installs a JSON handler on stdout at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func InitLogger(level string) {
	Logger = NewLogger(os.Stdout, level)
}

func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
