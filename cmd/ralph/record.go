package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/auditlog"
	"ralph-hq/ralph/pkg/cli"
)

var recordFlags struct {
	runID         string
	stage         string
	duration      float64
	cacheHit      bool
	decision      string
	totalDuration float64
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an audit cost measurement",
	Long: `Append one audit cost record to the configured backend.

A stage record carries the stage name and its duration. A completion record
(--decision) closes a run with its decision and total duration. Records of
one run share a run id; pass --run-id to correlate records across
invocations, otherwise a fresh id is generated.

Examples:
  # Record a stage measurement
  ralph record --run-id 42f1... --stage auditor --duration 130.5

  # Record a cached stage
  ralph record --run-id 42f1... --stage plan_digest --duration 0.2 --cache-hit

  # Close the run
  ralph record --run-id 42f1... --decision approved --total-duration 311`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordFlags.runID, "run-id", "", "run id (generated if not specified)")
	recordCmd.Flags().StringVar(&recordFlags.stage, "stage", "", "pipeline stage name")
	recordCmd.Flags().Float64Var(&recordFlags.duration, "duration", 0, "stage duration in seconds")
	recordCmd.Flags().BoolVar(&recordFlags.cacheHit, "cache-hit", false, "stage was served from cache")
	recordCmd.Flags().StringVar(&recordFlags.decision, "decision", "", "run decision (writes a completion record)")
	recordCmd.Flags().Float64Var(&recordFlags.totalDuration, "total-duration", 0, "total run duration in seconds (completion record)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	if recordFlags.stage == "" && recordFlags.decision == "" {
		return cli.NewCommandError("record", fmt.Errorf("either --stage or --decision is required"))
	}
	if recordFlags.stage != "" && recordFlags.decision != "" {
		return cli.NewCommandError("record", fmt.Errorf("--stage and --decision are mutually exclusive"))
	}

	runID := recordFlags.runID
	if runID == "" {
		runID = uuid.New().String()
	}

	record := &auditlog.CostRecord{
		RunID:      runID,
		RecordedAt: time.Now(),
	}
	if recordFlags.decision != "" {
		record.Stage = auditlog.StageComplete
		record.Decision = recordFlags.decision
		record.TotalDurationS = recordFlags.totalDuration
	} else {
		record.Stage = recordFlags.stage
		record.DurationS = recordFlags.duration
		record.CacheHit = recordFlags.cacheHit
	}

	store, err := openAuditStorage(cfg, logger)
	if err != nil {
		return cli.NewCommandError("record", err)
	}
	defer store.Close()

	if err := store.Append(context.Background(), record); err != nil {
		return cli.NewCommandError("record", err)
	}
	fmt.Printf("Recorded %s for run %s\n", record.Stage, runID)
	return nil
}
