package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pluma/prontuario/internal/domain"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"

	// minSecretLength matches the session signer's requirement.
	minSecretLength = 32
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env       string `envconfig:"ENV" default:"development"`
	Port      string `envconfig:"PORT" default:"8080"`
	StaticDir string `envconfig:"STATIC_DIR" default:"./public"`

	// Security settings
	HSTSMaxAge     int      `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode        string   `envconfig:"CSP_MODE" default:"relaxed"`
	BlockedIPs     []string `envconfig:"BLOCKED_IPS"`
	BlockedAgents  []string `envconfig:"BLOCKED_AGENTS" default:"bot,crawler,spider"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	// Session settings
	SigningSecret string        `envconfig:"SIGNING_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	AuthUsers     string        `envconfig:"AUTH_USERS"`

	// Persistence settings
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"prontuario.db"`

	// Object storage settings
	StorageBackend string        `envconfig:"STORAGE_BACKEND" default:"local"`
	StorageDir     string        `envconfig:"STORAGE_DIR" default:"data"`
	StorageBucket  string        `envconfig:"STORAGE_BUCKET" default:"prontuario-audios"`
	S3Region       string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint     string        `envconfig:"S3_ENDPOINT"`
	PublicBaseURL  string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	SignedURLTTL   time.Duration `envconfig:"SIGNED_URL_TTL" default:"24h"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`

	// Processing settings
	WebhookURL      string        `envconfig:"WEBHOOK_URL"`
	WebhookTimeout  time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"60s"`
	ProcessingDelay time.Duration `envconfig:"PROCESSING_DELAY" default:"1500ms"`

	// Terminal client settings
	MicLockPath string `envconfig:"MIC_LOCK_PATH"`
	SampleRate  int    `envconfig:"SAMPLE_RATE" default:"16000"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return &config, nil
}

func loadDotEnv() {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate checks the settings the services cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.WebhookURL == "" {
		errs = append(errs, errors.New("WEBHOOK_URL is required"))
	} else if u, err := url.Parse(c.WebhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("WEBHOOK_URL must be an http(s) URL, got %q", c.WebhookURL))
	}

	if len(c.SigningSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("SIGNING_SECRET must be at least %d characters", minSecretLength))
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.StorageBackend {
	case "local", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.CSPMode {
	case "relaxed", "strict":
	default:
		errs = append(errs, fmt.Errorf("unknown CSP_MODE %q", c.CSPMode))
	}

	if c.SessionTTL <= 0 || c.SignedURLTTL <= 0 || c.WebhookTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_TTL, SIGNED_URL_TTL and WEBHOOK_TIMEOUT must be positive"))
	}
	if c.ProcessingDelay < 0 {
		errs = append(errs, errors.New("PROCESSING_DELAY cannot be negative"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.MaxUploadBytes > domain.MaxAudioBytes {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES cannot exceed %d", domain.MaxAudioBytes))
	}

	return errors.Join(errs...)
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string, mediaOrigins ...string) string {
	media := strings.TrimSpace("'self' blob: " + strings.Join(mediaOrigins, " "))

	if mode == "strict" {
		// Production CSP
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"img-src 'self' data:; " +
			"media-src " + media + "; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; " +
		"media-src " + media
}
