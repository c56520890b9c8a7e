package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pluma/prontuario/internal/config"
)

// SetupLogger configures structured logging for the HTTP service.
func SetupLogger(cfg *config.Config) *slog.Logger {
	return setup(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: Level(cfg),
	}))
}

// SetupCLILogger configures logging for the terminal client. While the TUI
// owns an interactive terminal, records go to a log file instead of stderr.
// The returned closer releases the file, if any.
func SetupCLILogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	path := cfg.LogFile
	if path == "" && !isTerminal(os.Stderr.Fd()) {
		return setup(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: Level(cfg)})), io.NopCloser(nil), nil
	}

	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve log dir: %w", err)
		}
		path = filepath.Join(dir, "prontuario", "prontuario.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	//nolint:gosec // path comes from local configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return setup(slog.NewTextHandler(f, &slog.HandlerOptions{Level: Level(cfg)})), f, nil
}

// Level determines the log level from the environment and LOG_LEVEL.
func Level(cfg *config.Config) slog.Level {
	logLevel := slog.LevelInfo
	if cfg.Env == "development" {
		logLevel = slog.LevelDebug
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	return logLevel
}

func setup(handler slog.Handler) *slog.Logger {
	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
