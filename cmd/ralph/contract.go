package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"ralph-hq/ralph/pkg/cli"
)

var contractFlags struct {
	contract string
	context  int
	format   string
}

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Query the master contract document",
	Long: `Query the master contract document: version, section lookup, and search.

Examples:
  # Show the contract version
  ralph contract version

  # Print a section with its subsections
  ralph contract lookup §3.2

  # Search the contract text
  ralph contract search "fee drag" --context 3`,
}

var contractVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the contract document version",
	RunE:  runContractVersion,
}

var contractLookupCmd = &cobra.Command{
	Use:   "lookup <section>",
	Short: "Print a contract section by reference",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractLookup,
}

var contractSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the contract text",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractSearch,
}

func init() {
	rootCmd.AddCommand(contractCmd)
	contractCmd.AddCommand(contractVersionCmd)
	contractCmd.AddCommand(contractLookupCmd)
	contractCmd.AddCommand(contractSearchCmd)

	contractCmd.PersistentFlags().StringVar(&contractFlags.contract, "contract", "", "contract document (uses config if not specified)")
	contractSearchCmd.Flags().IntVar(&contractFlags.context, "context", 2, "context lines around each match")
	contractSearchCmd.Flags().StringVar(&contractFlags.format, "format", "text", "output format: text, json")
}

func runContractVersion(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	doc, err := loadContract(cfg, contractFlags.contract)
	if err != nil {
		return cli.NewCommandError("contract version", err)
	}
	fmt.Printf("%s (from %s)\n", doc.Version(), doc.Name())
	return nil
}

func runContractLookup(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	doc, err := loadContract(cfg, contractFlags.contract)
	if err != nil {
		return cli.NewCommandError("contract lookup", err)
	}
	content, err := doc.Lookup(args[0])
	if err != nil {
		return cli.NewCommandError("contract lookup", err)
	}
	fmt.Println(content)
	return nil
}

func runContractSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	doc, err := loadContract(cfg, contractFlags.contract)
	if err != nil {
		return cli.NewCommandError("contract search", err)
	}
	matches, err := doc.Search(args[0], contractFlags.context)
	if err != nil {
		return cli.NewCommandError("contract search", err)
	}

	if contractFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(cmd.OutOrStdout(), map[string]interface{}{
			"query":   args[0],
			"matches": matches,
		})
	}

	if len(matches) == 0 {
		fmt.Printf("No matches for %q in %s\n", args[0], doc.Name())
		return nil
	}
	fmt.Printf("%d match(es) for %q in %s:\n\n", len(matches), args[0], doc.Name())
	for _, match := range matches {
		fmt.Println(match.Snippet)
		fmt.Println()
	}
	return nil
}
