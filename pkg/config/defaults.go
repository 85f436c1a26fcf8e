package config

import "time"

// Default returns a configuration populated with defaults.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Contract.Path == "" {
		cfg.Contract.Path = "specs/CONTRACT.md"
		cfg.Contract.Watch = true
	}
	if cfg.Documents.AnchorsPath == "" {
		cfg.Documents.AnchorsPath = "specs/ANCHORS.md"
	}
	if cfg.Documents.RulesPath == "" {
		cfg.Documents.RulesPath = "specs/VALIDATION_RULES.md"
	}

	if cfg.AuditLog.Backend == "" {
		cfg.AuditLog.Backend = "jsonl"
	}
	if cfg.AuditLog.JSONLPath == "" {
		cfg.AuditLog.JSONLPath = ".context/audit_costs.jsonl"
	}
	if cfg.AuditLog.SQLitePath == "" {
		cfg.AuditLog.SQLitePath = "data/audit_costs.db"
	}
	if cfg.AuditLog.RetentionDays == 0 {
		cfg.AuditLog.RetentionDays = 90
	}
	if cfg.AuditLog.PruneSchedule == "" {
		cfg.AuditLog.PruneSchedule = "0 3 * * *"
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8787"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.Namespace = "ralph"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "kernel"
	}
}
