package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

var validBackends = map[string]bool{
	"jsonl":  true,
	"sqlite": true,
	"memory": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Validate checks the configuration for inconsistencies. It is called after
// defaults and environment overrides are applied.
func Validate(cfg *Config) error {
	if cfg.Contract.Path == "" {
		return fmt.Errorf("contract.path must not be empty")
	}

	if !validBackends[cfg.AuditLog.Backend] {
		return fmt.Errorf("audit_log.backend %q is not one of jsonl, sqlite, memory", cfg.AuditLog.Backend)
	}
	if cfg.AuditLog.RetentionDays < 0 {
		return fmt.Errorf("audit_log.retention_days must not be negative")
	}
	if cfg.AuditLog.MaxRecords < 0 {
		return fmt.Errorf("audit_log.max_records must not be negative")
	}
	if cfg.AuditLog.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.AuditLog.PruneSchedule); err != nil {
			return fmt.Errorf("audit_log.prune_schedule is not a valid cron expression: %w", err)
		}
	}

	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}

	if !validLogLevels[cfg.Telemetry.Logging.Level] {
		return fmt.Errorf("telemetry.logging.level %q is not one of debug, info, warn, error", cfg.Telemetry.Logging.Level)
	}
	if !validLogFormats[cfg.Telemetry.Logging.Format] {
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text", cfg.Telemetry.Logging.Format)
	}

	return nil
}
