package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rill/internal/diag"
	"rill/internal/diagfmt"
	"rill/internal/driver"
	"rill/internal/source"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] file.rl",
	Short: "Tokenize a rill source file",
	Long: `Tokens prints the lexer tokens of a file (pretty, json) or the token
tree a macro would receive it as (tree, debug)`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().String("format", "pretty", "output format (pretty|json|tree|debug)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "tree", "debug":
	default:
		return fmt.Errorf("unknown format: %s", format)
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

	result, err := driver.Tokenize(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	printDiagnostics(cmd, result.Bag, result.FileSet)

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(out, result.Tokens, result.File.ID, result.FileSet)
	case "json":
		return diagfmt.FormatTokensJSON(out, result.Tokens)
	case "tree":
		return diagfmt.FormatTokenTree(out, result.Tree, false)
	default:
		return diagfmt.FormatTokenTree(out, result.Tree, true)
	}
}

// printDiagnostics пишет непустой bag в stderr в человекочитаемом виде.
// printShortDiagnostics writes one line per diagnostic, notes included.
func printShortDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), diag.FormatGoldenDiagnostics(bag.Items(), fs, true))
}

func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{
		Color:     useColor(cmd, os.Stderr),
		Context:   1,
		ShowNotes: true,
	})
}
