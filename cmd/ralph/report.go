package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/auditlog"
	"ralph-hq/ralph/pkg/cli"
)

var reportFlags struct {
	file   string
	format string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize audit run costs",
	Long: `Aggregate recorded audit costs into per-stage percentile statistics.

Records come from the configured audit log backend (JSONL file, SQLite
database, or memory). Stage durations are summarized as min/median/p90/p95/max,
runs are counted by decision, and cache hit rates are reported per stage.
Runs missing a "complete" record get their total duration from the sum of
their stage durations.

Examples:
  # Report from the configured backend
  ralph report

  # Report from an explicit JSONL file
  ralph report --file .context/audit_costs.jsonl

  # Emit the aggregates as JSON
  ralph report --format json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFlags.file, "file", "", "JSONL file to report from (overrides the configured backend)")
	reportCmd.Flags().StringVar(&reportFlags.format, "format", "text", "output format: text, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	var records []*auditlog.CostRecord
	if reportFlags.file != "" {
		records, err = auditlog.ReadJSONLFile(reportFlags.file, logger)
		if err != nil {
			return cli.NewCommandError("report", err)
		}
	} else {
		store, err := openAuditStorage(cfg, logger)
		if err != nil {
			return cli.NewCommandError("report", err)
		}
		defer store.Close()
		records, err = store.List(context.Background())
		if err != nil {
			return cli.NewCommandError("report", err)
		}
	}

	if len(records) == 0 {
		fmt.Println("No audit cost records found.")
		return nil
	}

	report := auditlog.BuildReport(records)
	if reportFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(cmd.OutOrStdout(), report)
	}
	fmt.Print(report.Render())
	return nil
}
