package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/certify"
	"ralph-hq/ralph/pkg/cli"
)

var certifyFlags struct {
	metrics       string
	runtimeConfig string
	contract      string
	window        string
	out           string
	root          string
	nowMs         int64
}

var certifyCmd = &cobra.Command{
	Use:   "certify",
	Short: "Generate a release certification",
	Long: `Evaluate release gate metrics and write a certification decision record.

The metrics file is JSON, either the metrics object itself or wrapped in a
top-level "release_gate_metrics" key. Every required metric must be present;
a missing metric fails the certification outright. The thresholds are fixed:
fee_drag_ratio below 0.35, replay_coverage_pct at least 95, and zero
atomic_naked_events_24h.

The command writes a canonical JSON certificate plus a markdown summary next
to it, then exits non-zero when the certification failed.

Examples:
  # Certify with a 24 hour validity window
  ralph certify --metrics gate_metrics.json --window 24h

  # Include a runtime config hash and a custom output path
  ralph certify --metrics gate_metrics.json --runtime-config runtime.json \
    --out artifacts/certification.json`,
	RunE: runCertify,
}

func init() {
	rootCmd.AddCommand(certifyCmd)

	certifyCmd.Flags().StringVar(&certifyFlags.metrics, "metrics", "", "release gate metrics JSON file (required)")
	certifyCmd.Flags().StringVar(&certifyFlags.runtimeConfig, "runtime-config", "", "runtime configuration JSON file to hash into the certificate")
	certifyCmd.Flags().StringVar(&certifyFlags.contract, "contract", "", "contract document (uses config if not specified)")
	certifyCmd.Flags().StringVar(&certifyFlags.window, "window", "24h", "certificate validity window (e.g. 30m, 24h, 7d)")
	certifyCmd.Flags().StringVar(&certifyFlags.out, "out", "certification.json", "output path for the JSON certificate")
	certifyCmd.Flags().StringVar(&certifyFlags.root, "root", ".", "repository root for build id resolution")
	certifyCmd.Flags().Int64Var(&certifyFlags.nowMs, "now-ms", 0, "override the generation timestamp (unix ms) for deterministic output")
	certifyCmd.MarkFlagRequired("metrics")
}

func runCertify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	doc, err := loadContract(cfg, certifyFlags.contract)
	if err != nil {
		return cli.NewCommandError("certify", err)
	}

	rawMetrics, err := readJSONFile(certifyFlags.metrics)
	if err != nil {
		return cli.NewCommandError("certify", err)
	}

	var runtimeConfig interface{}
	if certifyFlags.runtimeConfig != "" {
		runtimeConfig, err = readJSONFile(certifyFlags.runtimeConfig)
		if err != nil {
			return cli.NewCommandError("certify", err)
		}
	}

	cert, reasons, err := certify.Generate(certify.Options{
		Window:          certifyFlags.window,
		RawMetrics:      rawMetrics,
		RuntimeConfig:   runtimeConfig,
		ContractVersion: doc.Version(),
		Root:            certifyFlags.root,
		NowMs:           certifyFlags.nowMs,
	})
	if err != nil {
		return cli.NewCommandError("certify", err)
	}

	if err := certify.WriteFiles(cert, certifyFlags.window, reasons, certifyFlags.out); err != nil {
		return cli.NewCommandError("certify", err)
	}
	logger.Info("certification written",
		"status", cert.Status,
		"build_id", cert.BuildID,
		"path", certifyFlags.out)

	fmt.Printf("Certification: %s\n", cert.Status)
	fmt.Printf("  Certificate: %s\n", certifyFlags.out)
	if cert.Status != certify.StatusPass {
		return cli.NewCommandError("certify",
			fmt.Errorf("certification failed: %s", strings.Join(reasons, "; ")))
	}
	return nil
}

func readJSONFile(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return value, nil
}
