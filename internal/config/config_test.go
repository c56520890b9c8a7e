package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pluma/prontuario/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() config.Config {
	return config.Config{
		WebhookURL:      "https://hooks.example/processar",
		SigningSecret:   "0123456789abcdef0123456789abcdef",
		DatabaseDriver:  "sqlite",
		StorageBackend:  "local",
		CSPMode:         "relaxed",
		SessionTTL:      time.Hour,
		SignedURLTTL:    time.Hour,
		WebhookTimeout:  time.Minute,
		ProcessingDelay: 1500 * time.Millisecond,
		MaxUploadBytes:  50 << 20,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "missing webhook", mutate: func(c *config.Config) { c.WebhookURL = "" }, wantErr: "WEBHOOK_URL is required"},
		{name: "non http webhook", mutate: func(c *config.Config) { c.WebhookURL = "ftp://x" }, wantErr: "must be an http(s) URL"},
		{name: "short secret", mutate: func(c *config.Config) { c.SigningSecret = "abc" }, wantErr: "SIGNING_SECRET"},
		{name: "driver", mutate: func(c *config.Config) { c.DatabaseDriver = "mysql" }, wantErr: "unknown DATABASE_DRIVER"},
		{name: "backend", mutate: func(c *config.Config) { c.StorageBackend = "gcs" }, wantErr: "unknown STORAGE_BACKEND"},
		{name: "csp", mutate: func(c *config.Config) { c.CSPMode = "loose" }, wantErr: "unknown CSP_MODE"},
		{name: "negative delay", mutate: func(c *config.Config) { c.ProcessingDelay = -time.Second }, wantErr: "PROCESSING_DELAY"},
		{name: "zero upload limit", mutate: func(c *config.Config) { c.MaxUploadBytes = 0 }, wantErr: "MAX_UPLOAD_BYTES"},
		{name: "upload limit above 50 MiB", mutate: func(c *config.Config) { c.MaxUploadBytes = 50<<20 + 1 }, wantErr: "MAX_UPLOAD_BYTES cannot exceed"},
		{name: "lower upload limit", mutate: func(c *config.Config) { c.MaxUploadBytes = 10 << 20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "prontuario-audios", cfg.StorageBucket)
	assert.Equal(t, 60*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.ProcessingDelay)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"bot", "crawler", "spider"}, cfg.BlockedAgents)
}

func TestLoadWithFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
webhook_url = "https://file.example/hook"
processing_delay = "0s"
sample_rate = 44100
blocked_ips = ["10.0.0.1", "10.0.0.2"]
`), 0o600))

	t.Setenv("WEBHOOK_URL", "https://env.example/hook")
	// unset variables must be restored after the test
	for _, name := range []string{"PROCESSING_DELAY", "SAMPLE_RATE", "BLOCKED_IPS"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}

	cfg, err := config.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/hook", cfg.WebhookURL, "environment wins")
	assert.Equal(t, time.Duration(0), cfg.ProcessingDelay)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.BlockedIPs)
}

func TestLoadWithFile_Missing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadWithFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestBuildCSP(t *testing.T) {
	strict := config.BuildCSP("strict", "https://cdn.example")
	assert.Contains(t, strict, "script-src 'self';")
	assert.Contains(t, strict, "media-src 'self' blob: https://cdn.example;")
	assert.Contains(t, strict, "object-src 'none'")

	relaxed := config.BuildCSP("relaxed")
	assert.Contains(t, relaxed, "'unsafe-inline'")
	assert.Contains(t, relaxed, "media-src 'self' blob:")
}
