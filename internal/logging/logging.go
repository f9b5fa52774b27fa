// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", domain.ErrInvalidInput, s)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New returns a logger writing to w. Format "text" uses tint, "json" uses
// slog's JSON handler and "auto" picks text for terminals and JSON
// otherwise.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	tty := IsTerminal(w)
	var handler slog.Handler
	switch format {
	case "text", "":
		handler = tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.Kitchen, NoColor: !tty})
	case "auto":
		if tty {
			handler = tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.Kitchen})
		} else {
			handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: true})
		}
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: true})
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", domain.ErrInvalidInput, format)
	}
	return slog.New(handler), nil
}
