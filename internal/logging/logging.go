package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
)

// New returns a slog logger that prints through pterm, so log lines share the
// console style of the rest of the CLI. JSON output is meant for the server.
func New(level string, w io.Writer, jsonOutput bool) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := pterm.DefaultLogger.WithLevel(lvl).WithWriter(w)
	if jsonOutput {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}

	return slog.New(pterm.NewSlogHandler(logger)), nil
}

func ParseLevel(level string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "", "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "off", "disabled":
		return pterm.LogLevelDisabled, nil
	default:
		return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q (use trace, debug, info, warn, error, off)", level)
	}
}

// Discard is a logger for tests and quiet commands.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
