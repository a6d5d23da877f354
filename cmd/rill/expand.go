package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rill/internal/diagfmt"
	"rill/internal/driver"
	"rill/internal/observ"
	"rill/internal/source"
)

var expandCmd = &cobra.Command{
	Use:   "expand [flags] <file.rl|directory>...",
	Short: "Expand every macro call of rill source files",
	Long: `Expand resolves and expands all macro calls, following the calls found in
each expansion, and prints the expanded text or the expansion tree`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExpand,
}

func init() {
	f := expandCmd.Flags()
	f.Bool("tree", false, "print the expansion tree instead of the expanded text")
	f.Bool("output", false, "with --tree, print the text of every leaf expansion")
	f.String("format", "pretty", "output format (pretty|short|json)")
	f.Int("jobs", 0, "max parallel expansions (0=auto)")
	f.Int("recursion-limit", driver.DefaultRecursionLimit, "deepest chain of nested expansions under one call")
	f.Int("expansion-limit", driver.DefaultExpansionLimit, "most calls expanded under one call, nested ones included")
	f.Int("max-leaves", 0, "cap on tokens produced by one declarative expansion (0=unlimited)")
	f.StringSlice("cfg", nil, "enable a cfg flag (name or key=value)")
	f.String("edition", "", "edition of the crate's files (2015|2018|2021|2024)")
	f.String("crate-name", "", "name $crate resolves to in local macros")
	f.StringArray("proc-macro", nil, "command line of a proc-macro server (repeatable)")
	f.Duration("proc-macro-timeout", 0, "per-request deadline for proc-macro servers (0=default)")
	f.Bool("timings", false, "report phase timings")
	f.String("ui", "auto", "progress UI (auto|on|off)")
}

// collectPaths раскрывает директории в отсортированные списки *.rl файлов.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := driver.ListSources(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
		paths = append(paths, files...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files found", driver.SourceExt)
	}
	return paths, nil
}

// connectProcMacros starts the servers named in rill.toml and on the
// command line.
func connectProcMacros(ctx context.Context, cmd *cobra.Command, cfg rillConfig) ([]driver.ProcMacroServer, func() error, error) {
	flagTimeout, err := cmd.Flags().GetDuration("proc-macro-timeout")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get proc-macro-timeout flag: %w", err)
	}
	extra, err := cmd.Flags().GetStringArray("proc-macro")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get proc-macro flag: %w", err)
	}
	entries := append([]procMacroConfig(nil), cfg.ProcMacros...)
	for _, line := range extra {
		if argv := strings.Fields(line); len(argv) > 0 {
			entries = append(entries, procMacroConfig{Command: argv})
		}
	}

	var (
		servers []driver.ProcMacroServer
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	for _, entry := range entries {
		timeout, _ := entry.timeout()
		if flagTimeout > 0 {
			timeout = flagTimeout
		}
		srv, closeFn, err := driver.ConnectProcMacros(ctx, [][]string{entry.Command}, timeout)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		servers = append(servers, srv...)
		closers = append(closers, closeFn)
	}
	return servers, closeAll, nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, err := flags.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	showTree, _ := flags.GetBool("tree")
	showOutput, _ := flags.GetBool("output")
	timings, _ := flags.GetBool("timings")
	uiValue, _ := flags.GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, cfg)
	if err != nil {
		return err
	}
	opts.Timings = timings

	paths, err := collectPaths(args)
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx := cmd.Context()
	servers, closeServers, err := connectProcMacros(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeServers(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "proc-macro: %v\n", cerr)
		}
	}()
	opts.ProcMacros = servers

	useUI := !quiet && format == "pretty" && shouldUseTUI(mode, len(paths))
	var events chan driver.Event
	if useUI {
		events = make(chan driver.Event, 256)
		opts.Progress = driver.ChannelSink{Ch: events}
	}

	fs := source.NewFileSet()
	d := driver.New(fs, opts)

	cleanup, err := setupTracing(cmd, cfg.Trace, d.Registry().Runs)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx = cmd.Context()

	started := time.Now()
	var results []*driver.FileResult
	if useUI {
		results, err = runExpandWithUI(ctx, "expanding", d, paths, events)
	} else {
		results, err = d.ExpandPaths(ctx, paths)
	}
	if err != nil {
		return fmt.Errorf("expansion failed: %w", err)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		if res != nil && res.Bag != nil && res.Bag.HasErrors() {
			failed++
		}
	}

	if format == "json" {
		if err := writeExpandJSON(out, results, fs, opts.MaxDiagnostics); err != nil {
			return err
		}
	} else {
		treeOpts := diagfmt.TreeOpts{Color: useColor(cmd, os.Stdout), Output: showOutput}
		for _, res := range results {
			if res == nil {
				continue
			}
			if format == "short" {
				printShortDiagnostics(cmd, res.Bag, fs)
			} else {
				printDiagnostics(cmd, res.Bag, fs)
			}
			if res.Tree == nil {
				continue
			}
			if len(results) > 1 {
				fmt.Fprintf(out, "// %s\n", res.Path)
			}
			if showTree {
				if err := diagfmt.FormatExpansionTree(out, res, fs, treeOpts); err != nil {
					return err
				}
				continue
			}
			if _, err := io.WriteString(out, res.Text); err != nil {
				return err
			}
		}
		if timings && len(results) > 1 {
			reports := make([]observ.Report, 0, len(results))
			for _, res := range results {
				if res != nil {
					reports = append(reports, res.Timing)
				}
			}
			fmt.Fprint(cmd.ErrOrStderr(), observ.Merge(reports...).Summary())
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "expanded %d file(s), %d call(s) in %.1f ms\n",
				len(results), countCalls(results), float64(time.Since(started))/float64(time.Millisecond))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to expand", failed)
	}
	return nil
}

func countCalls(results []*driver.FileResult) int {
	n := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, root := range res.Roots {
			root.Walk(func(*driver.Expansion) bool {
				n++
				return true
			})
		}
	}
	return n
}

type expandFileJSON struct {
	Path        string                    `json:"path"`
	Text        string                    `json:"text,omitempty"`
	Calls       int                       `json:"calls"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type expandOutputJSON struct {
	Files []expandFileJSON `json:"files"`
}

func writeExpandJSON(w io.Writer, results []*driver.FileResult, fs *source.FileSet, maxDiagnostics int) error {
	payload := expandOutputJSON{Files: make([]expandFileJSON, 0, len(results))}
	opts := diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true, Max: maxDiagnostics}
	for _, res := range results {
		if res == nil {
			continue
		}
		entry := expandFileJSON{
			Path:  res.Path,
			Text:  res.Text,
			Calls: countCalls([]*driver.FileResult{res}),
		}
		if res.Bag != nil {
			entry.Diagnostics = diagfmt.BuildDiagnosticsOutput(res.Bag, fs, opts)
		} else {
			entry.Diagnostics = diagfmt.DiagnosticsOutput{Diagnostics: []diagfmt.DiagnosticJSON{}}
		}
		payload.Files = append(payload.Files, entry)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
