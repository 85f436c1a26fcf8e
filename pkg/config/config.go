package config

import "time"

// Config is the root configuration structure for ralph.
type Config struct {
	// Contract contains configuration for the master contract document.
	Contract ContractConfig `yaml:"contract"`

	// Documents contains default paths for the kernel input documents.
	Documents DocumentsConfig `yaml:"documents"`

	// AuditLog contains configuration for audit cost recording and
	// retention.
	AuditLog AuditLogConfig `yaml:"audit_log"`

	// Server contains configuration for the tool server started by
	// "ralph serve".
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ContractConfig locates the master contract document.
type ContractConfig struct {
	// Path is the contract document file.
	// Default: "specs/CONTRACT.md"
	Path string `yaml:"path"`

	// Watch enables hot-reloading the contract document when it changes
	// on disk (tool server only).
	// Default: true
	Watch bool `yaml:"watch"`
}

// DocumentsConfig holds default locations for kernel input documents.
type DocumentsConfig struct {
	// AnchorsPath is the default anchors document.
	// Default: "specs/ANCHORS.md"
	AnchorsPath string `yaml:"anchors_path"`

	// RulesPath is the default validation rules document.
	// Default: "specs/VALIDATION_RULES.md"
	RulesPath string `yaml:"rules_path"`
}

// AuditLogConfig configures audit cost recording.
type AuditLogConfig struct {
	// Backend selects the storage backend: "jsonl", "sqlite", or "memory".
	// Default: "jsonl"
	Backend string `yaml:"backend"`

	// JSONLPath is the append-only JSONL log file (jsonl backend).
	// Default: ".context/audit_costs.jsonl"
	JSONLPath string `yaml:"jsonl_path"`

	// SQLitePath is the database file (sqlite backend).
	// Default: "data/audit_costs.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is the number of days to retain records.
	// 0 keeps records forever. Default: 90
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// ServerConfig configures the HTTP tool server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8787"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "text"
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix. Default: "ralph"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem. Default: "kernel"
	Subsystem string `yaml:"subsystem"`
}
