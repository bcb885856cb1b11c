// Package config provides layered configuration for peekd.
//
// Precedence, highest to lowest:
//
//  1. Command-line flags (applied by the CLI layer)
//  2. Environment variables (PEEKD_* prefix)
//  3. YAML config file (peekd.yaml)
//  4. Default values
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	// DefaultPort is the HTTP listen port. Container deployments usually
	// override this to 3030 via PEEKD_PORT.
	DefaultPort = 8000

	// DefaultMaxRecords is the request log capacity.
	DefaultMaxRecords = 100

	// DefaultMaxBodyBytes caps how much of a request body is retained.
	DefaultMaxBodyBytes = 64 << 10 // 64KiB

	// DefaultConfigFile is the config file looked up in the working
	// directory when --config is not given.
	DefaultConfigFile = "peekd.yaml"
)

// Config holds the peekd server configuration.
type Config struct {
	// Port is the TCP port the inspector listens on.
	Port int `yaml:"port"`

	// MaxRecords is the request log capacity; the oldest record is
	// evicted once it is exceeded.
	MaxRecords int `yaml:"maxRecords"`

	// MaxBodyBytes caps the retained request body size in bytes.
	// Zero records metadata only, no body text.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`

	// Ignore lists doublestar glob patterns of paths that are
	// acknowledged but not recorded (e.g. "/favicon.ico", "/probes/**").
	Ignore []string `yaml:"ignore"`

	// LogLevel is the operational log level (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// LogFormat is the operational log format (text, json).
	LogFormat string `yaml:"logFormat"`

	// LogFile, when set, tees the operational log to this file.
	LogFile string `yaml:"logFile"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		MaxRecords:   DefaultMaxRecords,
		MaxBodyBytes: DefaultMaxBodyBytes,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load builds a Config from defaults, the YAML file at path (optional), and
// the environment, in that order. An empty path means "use peekd.yaml if it
// exists"; a missing default file is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// no config file, defaults apply
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.MaxRecords < 1 {
		return fmt.Errorf("maxRecords must be at least 1, got %d", c.MaxRecords)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("maxBodyBytes must not be negative, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Write marshals the config to YAML at path. Used by `peekd init`.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
