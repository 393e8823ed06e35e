package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/spoofmac/spoofmac/internal/config"
)

// New builds the structured logger. Logs go nowhere unless verbose is
// set (stderr) or a file is configured (rotated by lumberjack); the
// [*]/[+]/[-] lines are the user-facing output. The returned close
// function flushes and closes the log file, if any.
func New(cfg config.LogConfig, verbose bool) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	var (
		out     io.Writer
		closeFn = func() error { return nil }
	)
	switch {
	case cfg.File != "":
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = lj
		closeFn = lj.Close
		if verbose {
			out = io.MultiWriter(lj, os.Stderr)
		}
	case verbose:
		out = os.Stderr
	default:
		return slog.New(slog.DiscardHandler), closeFn, nil
	}

	handler, err := newHandler(out, cfg.Format, level)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return slog.New(handler), closeFn, nil
}

func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel accepts debug, info, warn(ing) and error, case-insensitively.
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
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
