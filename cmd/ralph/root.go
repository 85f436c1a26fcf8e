package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Ralph - fail-closed contract kernel",
	Long: `Ralph is a fail-closed contract kernel for audit pipelines.

It extracts anchors and validation rules from semi-structured project
documents and cross-validates every contract reference against the master
contract document. Any structural defect, duplicate id, or unresolvable
reference fails the whole operation: no partial output is ever produced.

Beyond the two parsers it provides:
  - Contract section lookup and full-text search
  - Release certification against fixed gate thresholds
  - Audit run cost recording and percentile reporting
  - Vendor snapshot linting for dependency changes
  - An HTTP tool server exposing the kernel to automation`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ralph.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
