package main

import (
	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/auditlog/retention"
	"ralph-hq/ralph/pkg/cli"
	"ralph-hq/ralph/pkg/contract"
	"ralph-hq/ralph/pkg/server"
	"ralph-hq/ralph/pkg/telemetry/metrics"
)

var serveFlags struct {
	listen   string
	contract string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP tool server",
	Long: `Start the HTTP tool server exposing the kernel to automation.

Endpoints:
  GET  /healthz               health and contract version
  GET  /v1/contract/version   contract document version
  GET  /v1/contract/lookup    contract section by reference (?section=§3.2)
  GET  /v1/contract/search    contract full-text search (?q=...&context=2)
  POST /v1/anchors/parse      parse and validate an anchors document
  POST /v1/rules/parse        parse and validate a validation rules document
  GET  /metrics               Prometheus metrics

When watching is enabled, the contract document is reloaded on change; a
broken document keeps the previous one serving. A retention scheduler prunes
the audit cost log per the configured schedule.

Examples:
  # Start with the configured address
  ralph serve

  # Override the listen address
  ralph serve --listen 0.0.0.0:8787`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "listen address (uses config if not specified)")
	serveCmd.Flags().StringVar(&serveFlags.contract, "contract", "", "contract document (uses config if not specified)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if serveFlags.listen != "" {
		cfg.Server.ListenAddress = serveFlags.listen
	}

	contractPath := serveFlags.contract
	if contractPath == "" {
		contractPath = cfg.Contract.Path
	}
	doc, err := contract.LoadFile(contractPath)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("contract document loaded",
		"path", contractPath,
		"version", doc.Version(),
		"lines", len(doc.Lines()))

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	}

	srv := server.NewServer(&cfg.Server, doc, collector, logger)
	ctx := cli.SetupSignalHandler()

	if cfg.Contract.Watch {
		watcher, err := contract.NewWatcher(contractPath, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			if err := watcher.Watch(ctx, func() error {
				return srv.ReloadFrom(contractPath)
			}); err != nil {
				logger.Error("contract watcher exited", "error", err)
			}
		}()
	}

	store, err := openAuditStorage(cfg, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays: cfg.AuditLog.RetentionDays,
		MaxRecords:    cfg.AuditLog.MaxRecords,
		PruneSchedule: cfg.AuditLog.PruneSchedule,
	})
	scheduler := retention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
