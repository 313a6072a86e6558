// Package config loads trilium-mcp configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/trilium-mcp/internal/types"
)

var (
	// ErrMissingURL is returned when no server URL is configured.
	ErrMissingURL = errors.New("trilium server URL is not set")
	// ErrMissingToken is returned when no ETAPI token is configured.
	ErrMissingToken = errors.New("ETAPI token is not set")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Environment variables that override the config file.
const (
	EnvURL      = "TRILIUM_URL"
	EnvToken    = "TRILIUM_TOKEN"
	EnvLogLevel = "TRILIUM_MCP_LOG_LEVEL"
)

// DefaultTimeout is used when the config does not set one.
const DefaultTimeout = 30 * time.Second

// Log holds logging options.
type Log struct {
	Level  string `yaml:"level,omitempty"`  // logrus level name, default "info"
	Format string `yaml:"format,omitempty"` // "text" (default) or "json"
}

// Config contains configuration for trilium-mcp.
type Config struct {
	URL     string                 `yaml:"url"`
	Token   string                 `yaml:"token"`
	Timeout string                 `yaml:"timeout,omitempty"`
	Log     Log                    `yaml:"log,omitempty"`
	Filter  types.NoteFilterConfig `yaml:"filter,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/trilium-mcp/config.yaml, falling
// back to the user config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "trilium-mcp", "config.yaml")
}

// Load reads the config file at path. A missing file yields an empty
// config so that the environment and flags alone can configure the server.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables read through
// getenv. Unset variables leave the field alone.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvURL)); v != "" {
		c.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the config can start a server.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("%w: set url in the config file, %s, or --url", ErrMissingURL, EnvURL)
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("%w: set token in the config file, %s, or --token", ErrMissingToken, EnvToken)
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("%w: timeout %q: %v", ErrInvalidValue, c.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidValue, c.Timeout)
		}
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: log level: %v", ErrInvalidValue, err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalidValue, c.Log.Format)
	}
	return nil
}

// RequestTimeout returns the per-request timeout (defaults to 30s).
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}
