package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFilePath is where the terminal client looks for its config file.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}

	return filepath.Join(dir, "prontuario", "config.toml"), nil
}

// LoadWithFile loads the terminal client configuration. Keys in the TOML
// file are lower-case environment variable names (webhook_url,
// processing_delay, ...). Real environment variables win over the file,
// and the file wins over defaults. A missing file is not an error.
func LoadWithFile(path string) (*Config, error) {
	loadDotEnv()

	if err := applyFile(path); err != nil {
		return nil, err
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return &config, nil
}

func applyFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for key, value := range values {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, fileValue(value)); err != nil {
			return fmt.Errorf("apply %s: %w", key, err)
		}
	}

	return nil
}

// fileValue renders a TOML value the way envconfig parses it.
func fileValue(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
