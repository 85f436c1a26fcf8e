package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, applies
// environment variable overrides (RALPH_SECTION_FIELD), and validates the
// result. A missing file is not an error: defaults plus environment apply.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Run on defaults.
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Variables use the
// format RALPH_SECTION_FIELD and always win over file values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("RALPH_CONTRACT_PATH"); val != "" {
		cfg.Contract.Path = val
	}
	if val := os.Getenv("RALPH_DOCUMENTS_ANCHORS_PATH"); val != "" {
		cfg.Documents.AnchorsPath = val
	}
	if val := os.Getenv("RALPH_DOCUMENTS_RULES_PATH"); val != "" {
		cfg.Documents.RulesPath = val
	}
	if val := os.Getenv("RALPH_AUDIT_LOG_BACKEND"); val != "" {
		cfg.AuditLog.Backend = val
	}
	if val := os.Getenv("RALPH_AUDIT_LOG_JSONL_PATH"); val != "" {
		cfg.AuditLog.JSONLPath = val
	}
	if val := os.Getenv("RALPH_AUDIT_LOG_SQLITE_PATH"); val != "" {
		cfg.AuditLog.SQLitePath = val
	}
	if val := os.Getenv("RALPH_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("RALPH_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("RALPH_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("RALPH_TELEMETRY_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("RALPH_TELEMETRY_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
