package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/cli"
	"ralph-hq/ralph/pkg/kernel/rules"
)

var rulesFlags struct {
	file   string
	format string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Parse and validate the validation rules document",
	Long: `Parse the validation rules document into structured rule records.

Each rule ("## VR-001: Title") must carry an id, title, contract reference,
and rule statement. Field labels are normalized ("**Failure Mode:**" becomes
"failure_mode"), gate id lists are collected from bullet blocks, and the rule
statement is chosen by priority: an explicit rule beats a trigger beats a
failure mode. Any missing field, duplicate id, or malformed gate entry fails
the command with no output.

Examples:
  # Parse the configured rules document
  ralph rules

  # Parse an explicit file and emit JSON
  ralph rules --file docs/VALIDATION_RULES.md --format json`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesFlags.file, "file", "", "validation rules document (uses config if not specified)")
	rulesCmd.Flags().StringVar(&rulesFlags.format, "format", "text", "output format: text, json")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	path := rulesFlags.file
	if path == "" {
		path = cfg.Documents.RulesPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cli.NewCommandError("rules", fmt.Errorf("failed to read %s: %w", path, err))
	}

	records, err := rules.Parse(string(data), path)
	if err != nil {
		return cli.NewCommandError("rules", err)
	}
	logger.Debug("validation rules validated", "count", len(records))

	if rulesFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(cmd.OutOrStdout(), map[string]interface{}{
			"rules": records,
		})
	}

	fmt.Printf("Validated %d rules from %s\n", len(records), path)
	for _, rule := range records {
		line := fmt.Sprintf("  %s: %s -> %s", rule.ID, rule.Title, rule.ContractRef)
		if len(rule.GateIDs) > 0 {
			line += fmt.Sprintf(" gates=[%s]", strings.Join(rule.GateIDs, ", "))
		}
		fmt.Println(line)
	}
	return nil
}
