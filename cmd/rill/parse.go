package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rill/internal/driver"
	"rill/internal/syntax"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.rl",
	Short: "Parse a rill source file and dump its syntax tree",
	Long:  `Parse prints the concrete syntax tree of a file, one node or token per line`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("trivia", false, "include whitespace and comments in the dump")
}

func runParse(cmd *cobra.Command, args []string) error {
	withTrivia, err := cmd.Flags().GetBool("trivia")
	if err != nil {
		return fmt.Errorf("failed to get trivia flag: %w", err)
	}

	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, cfg)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg.Trace, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := driver.Parse(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	printDiagnostics(cmd, result.Bag, result.FileSet)

	if _, err := io.WriteString(cmd.OutOrStdout(), syntax.Dump(result.Tree.Root, withTrivia)); err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		return fmt.Errorf("%s: syntax errors", result.File.Path)
	}
	return nil
}
