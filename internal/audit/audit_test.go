package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/pluma/prontuario/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	audit.New(logger).Log(context.Background(), audit.Event{
		Name:     "login_failed",
		Severity: audit.SeverityMedium,
		IP:       "10.0.0.1",
		Details:  map[string]string{"email": "ana@example.com"},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "[SECURITY MEDIUM]", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "login_failed", line["event"])
	assert.Equal(t, "anonymous", line["user_id"])
	assert.Equal(t, "10.0.0.1", line["ip"])
	assert.Equal(t, "unknown", line["user_agent"])
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, map[string]any{"email": "ana@example.com"}, line["details"])
}

func TestLog_SeverityLevels(t *testing.T) {
	tests := []struct {
		severity audit.Severity
		level    string
	}{
		{audit.SeverityLow, "INFO"},
		{"", "WARN"},
		{audit.SeverityHigh, "ERROR"},
		{audit.SeverityCritical, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			audit.New(logger).Log(context.Background(), audit.Event{Name: "x", Severity: tt.severity})

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.level, line["level"])
		})
	}
}
