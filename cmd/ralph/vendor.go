package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/cli"
	"ralph-hq/ralph/pkg/vendorlint"
)

var vendorFlags struct {
	repoRoot        string
	lockfile        string
	crates          string
	snapshots       string
	baseRef         string
	requireFeatures bool
}

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Vendor snapshot checks",
}

var vendorLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check dependency changes against approved vendor snapshots",
	Long: `Check lockfile changes for crates of interest against approved snapshots.

The current lockfile is diffed against the base revision. For every new
version of a crate of interest, an approved snapshot directory must exist
under the snapshot root, and its metadata must record the SHA-256 of the
current lockfile. Missing or stale snapshots fail the lint.

Examples:
  # Lint against origin/main with defaults
  ralph vendor lint --crates audits/crates_of_interest.yaml --snapshots audits/vendor

  # Lint against a different base revision
  ralph vendor lint --crates audits/crates.yaml --snapshots audits/vendor --base-ref origin/release`,
	RunE: runVendorLint,
}

func init() {
	rootCmd.AddCommand(vendorCmd)
	vendorCmd.AddCommand(vendorLintCmd)

	vendorLintCmd.Flags().StringVar(&vendorFlags.repoRoot, "repo-root", ".", "repository root")
	vendorLintCmd.Flags().StringVar(&vendorFlags.lockfile, "lockfile", "Cargo.lock", "lockfile path relative to the repository root")
	vendorLintCmd.Flags().StringVar(&vendorFlags.crates, "crates", "", "crates-of-interest YAML file (required)")
	vendorLintCmd.Flags().StringVar(&vendorFlags.snapshots, "snapshots", "", "approved snapshot root directory (required)")
	vendorLintCmd.Flags().StringVar(&vendorFlags.baseRef, "base-ref", vendorlint.DefaultBaseRef, "git revision to diff against")
	vendorLintCmd.Flags().BoolVar(&vendorFlags.requireFeatures, "require-features", false, "treat a missing or empty features.txt as a failure")
	vendorLintCmd.MarkFlagRequired("crates")
	vendorLintCmd.MarkFlagRequired("snapshots")
}

func runVendorLint(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	result, err := vendorlint.Run(vendorlint.Options{
		RepoRoot:        vendorFlags.repoRoot,
		LockfilePath:    vendorFlags.lockfile,
		CratesPath:      vendorFlags.crates,
		SnapshotRoot:    vendorFlags.snapshots,
		BaseRef:         vendorFlags.baseRef,
		RequireFeatures: vendorFlags.requireFeatures,
	})
	if err != nil {
		return cli.NewCommandError("vendor lint", err)
	}

	if result.SkipReason != "" {
		fmt.Printf("Skipped: %s\n", result.SkipReason)
		return nil
	}

	for _, warning := range result.Warnings {
		logger.Warn("vendor lint warning", "warning", warning)
		fmt.Printf("WARN  %s\n", warning)
	}
	for _, failure := range result.Failures {
		fmt.Printf("FAIL  %s\n", failure)
	}

	if !result.OK() {
		return cli.NewCommandError("vendor lint",
			fmt.Errorf("%d violation(s) across %d checked crate version(s)", len(result.Failures), result.Checked))
	}
	fmt.Printf("OK: %d crate version(s) checked, all snapshots approved\n", result.Checked)
	return nil
}
