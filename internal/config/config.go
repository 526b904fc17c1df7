// Package config handles the .leadline directory and runtime settings.
// Every directory leadline runs from gets a .leadline/ folder holding
// the config file and session logs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// LeadlineDir is the dot-directory created next to where the
	// operator runs leadline.
	LeadlineDir = ".leadline"

	configFileName = "config.yaml"

	defaultAPIURL         = "http://localhost:8001/api"
	defaultTimeoutSeconds = 30
)

const defaultConfigYAML = `# leadline configuration
version: 1

# Base address of the lead pipeline service.
api_url: http://localhost:8001/api

# Per-request timeout in seconds. A request that outlives this is
# reported as a failure instead of leaving the UI stuck.
request_timeout_seconds: 30
`

// Settings models .leadline/config.yaml.
type Settings struct {
	Version               int    `yaml:"version"`
	APIURL                string `yaml:"api_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	// WorkDir is where the operator ran leadline from.
	WorkDir string

	// Dir is WorkDir/.leadline.
	Dir string

	Settings Settings
}

// New creates the .leadline structure if needed, writes a default
// config on first run, loads it, and applies environment overrides
// (LEADLINE_API_URL, LEADLINE_TIMEOUT_SECONDS).
func New(workDir string) (*Config, error) {
	dir := filepath.Join(workDir, LeadlineDir)
	for _, sub := range []string{dir, filepath.Join(dir, "logs")} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", sub, err)
		}
	}

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if settings.APIURL == "" {
		settings.APIURL = defaultAPIURL
	}
	if settings.RequestTimeoutSeconds <= 0 {
		settings.RequestTimeoutSeconds = defaultTimeoutSeconds
	}
	applyEnvOverrides(&settings)

	return &Config{
		WorkDir:  workDir,
		Dir:      dir,
		Settings: settings,
	}, nil
}

func applyEnvOverrides(settings *Settings) {
	if url := strings.TrimSpace(os.Getenv("LEADLINE_API_URL")); url != "" {
		settings.APIURL = url
	}
	if raw := strings.TrimSpace(os.Getenv("LEADLINE_TIMEOUT_SECONDS")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			settings.RequestTimeoutSeconds = secs
		}
	}
}

// APIURL returns the base service address without a trailing slash.
func (c *Config) APIURL() string {
	return strings.TrimRight(c.Settings.APIURL, "/")
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Settings.RequestTimeoutSeconds) * time.Second
}

// LogPath returns the session journal location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, "logs", "session.log")
}
