package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/idilsaglam/checklist/internal/config"
)

// ParseLevel maps a config level name onto slog. Unknown names are an error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds the handler the logging section asks for, writing to w.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// SetupLogging installs the default logger. While the TUI owns the terminal
// logs go to the configured file instead of stderr; the returned func closes it.
func SetupLogging(cfg *config.Config, toFile, verbose bool) (func() error, error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if toFile {
		if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, f.Close
	}
	logger, err := NewLogger(w, cfg.Logging, verbose)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	slog.SetDefault(logger)
	return closeFn, nil
}
