package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvPort         = "PEEKD_PORT"
	EnvMaxRecords   = "PEEKD_MAX_RECORDS"
	EnvMaxBodyBytes = "PEEKD_MAX_BODY_BYTES"
	EnvIgnore       = "PEEKD_IGNORE"
	EnvLogLevel     = "PEEKD_LOG_LEVEL"
	EnvLogFormat    = "PEEKD_LOG_FORMAT"
	EnvLogFile      = "PEEKD_LOG_FILE"
	EnvConfig       = "PEEKD_CONFIG"
)

// ApplyEnv overlays PEEKD_* environment variables onto cfg.
// Only variables that are set and parseable take effect.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv(EnvMaxRecords); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRecords = n
		}
	}
	if v := os.Getenv(EnvMaxBodyBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv(EnvIgnore); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		cfg.Ignore = patterns
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}
}

// FileFromEnv returns the config file path from PEEKD_CONFIG, or "".
func FileFromEnv() string {
	return os.Getenv(EnvConfig)
}
