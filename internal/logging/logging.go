// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a JSON logger, or a coloured text logger when pretty is set.
func New(w io.Writer, logLevel string, pretty bool) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var handler slog.Handler
	if pretty {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler), nil
}

// InitGlobal installs the logger as the slog default.
func InitGlobal(w io.Writer, logLevel string, pretty bool) (*slog.Logger, error) {
	logger, err := New(w, logLevel, pretty)
	if err != nil {
		return nil, fmt.Errorf("init global logger: %w", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}
