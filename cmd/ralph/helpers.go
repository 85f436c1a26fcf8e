package main

import (
	"fmt"
	"log/slog"

	"ralph-hq/ralph/pkg/auditlog"
	"ralph-hq/ralph/pkg/auditlog/storage"
	"ralph-hq/ralph/pkg/cli"
	"ralph-hq/ralph/pkg/config"
	"ralph-hq/ralph/pkg/contract"
	"ralph-hq/ralph/pkg/telemetry/logging"
)

// setup loads the configuration and installs the default logger. The
// --verbose flag forces debug level regardless of configuration.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.Setup(logCfg)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return cfg, logger, nil
}

// loadContract loads the master contract document, preferring the explicit
// path over the configured one.
func loadContract(cfg *config.Config, explicitPath string) (*contract.Document, error) {
	path := explicitPath
	if path == "" {
		path = cfg.Contract.Path
	}
	return contract.LoadFile(path)
}

// openAuditStorage opens the configured audit cost storage backend.
func openAuditStorage(cfg *config.Config, logger *slog.Logger) (auditlog.Storage, error) {
	switch cfg.AuditLog.Backend {
	case "jsonl", "":
		return storage.NewJSONLStorage(cfg.AuditLog.JSONLPath, logger), nil
	case "sqlite":
		return storage.NewSQLiteStorage(cfg.AuditLog.SQLitePath)
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported audit log backend: %s", cfg.AuditLog.Backend)
	}
}
