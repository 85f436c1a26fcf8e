package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/cli"
	"ralph-hq/ralph/pkg/kernel/anchors"
)

var anchorsFlags struct {
	file     string
	contract string
	format   string
}

var anchorsCmd = &cobra.Command{
	Use:   "anchors",
	Short: "Parse and validate the anchors document",
	Long: `Parse the anchors document and validate it against the master contract.

Each anchor header ("## Anchor-001: Title") must carry a contract reference,
either in the header suffix ("(Contract §2.2)") or in the anchor's body text.
Every reference must resolve to a line of the master contract document. Any
missing reference, duplicate id, or unresolvable section fails the command
with no output.

Examples:
  # Parse the configured anchors document
  ralph anchors

  # Parse an explicit file against an explicit contract
  ralph anchors --file docs/ANCHORS.md --contract docs/CONTRACT.md

  # Emit the validated records as JSON
  ralph anchors --format json`,
	RunE: runAnchors,
}

func init() {
	rootCmd.AddCommand(anchorsCmd)

	anchorsCmd.Flags().StringVar(&anchorsFlags.file, "file", "", "anchors document (uses config if not specified)")
	anchorsCmd.Flags().StringVar(&anchorsFlags.contract, "contract", "", "contract document (uses config if not specified)")
	anchorsCmd.Flags().StringVar(&anchorsFlags.format, "format", "text", "output format: text, json")
}

func runAnchors(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	doc, err := loadContract(cfg, anchorsFlags.contract)
	if err != nil {
		return cli.NewCommandError("anchors", err)
	}

	path := anchorsFlags.file
	if path == "" {
		path = cfg.Documents.AnchorsPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cli.NewCommandError("anchors", fmt.Errorf("failed to read %s: %w", path, err))
	}

	records, err := anchors.Parse(string(data), doc.Lines(), path)
	if err != nil {
		return cli.NewCommandError("anchors", err)
	}
	logger.Debug("anchors validated", "count", len(records), "contract_version", doc.Version())

	if anchorsFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(cmd.OutOrStdout(), map[string]interface{}{
			"contract_version": doc.Version(),
			"anchors":          records,
		})
	}

	fmt.Printf("Validated %d anchors against contract %s (version %s)\n", len(records), doc.Name(), doc.Version())
	for _, anchor := range records {
		fmt.Printf("  %s: %s -> %s (line %d)\n", anchor.ID, anchor.Title, anchor.Proof.Section, anchor.Proof.Line)
	}
	return nil
}
