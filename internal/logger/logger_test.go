package logger_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{env: "production", level: "info", want: slog.LevelInfo},
		{env: "development", level: "info", want: slog.LevelDebug},
		{env: "production", level: "debug", want: slog.LevelDebug},
		{env: "production", level: "WARN", want: slog.LevelWarn},
		{env: "development", level: "error", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.Level(&config.Config{Env: tt.env, LogLevel: tt.level}))
		})
	}
}

func TestSetupCLILogger_File(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	path := filepath.Join(t.TempDir(), "logs", "cli.log")
	log, closer, err := logger.SetupCLILogger(&config.Config{Env: "production", LogLevel: "info", LogFile: path})
	require.NoError(t, err)

	log.Info("gravação iniciada", "component", "tui")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gravação iniciada")
	assert.Contains(t, string(data), "component=tui")
}
