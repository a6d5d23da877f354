package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"rill/internal/builtin"
	"rill/internal/driver"
	"rill/internal/span"
)

const configFileName = "rill.toml"

// rillConfig is the content of rill.toml. Every section is optional.
type rillConfig struct {
	Expand     expandConfig      `toml:"expand"`
	Trace      traceConfig       `toml:"trace"`
	ProcMacros []procMacroConfig `toml:"proc_macro"`
}

type expandConfig struct {
	RecursionLimit int      `toml:"recursion_limit"`
	ExpansionLimit int      `toml:"expansion_limit"`
	Jobs           int      `toml:"jobs"`
	Edition        string   `toml:"edition"`
	Cfg            []string `toml:"cfg"`
	CrateName      string   `toml:"crate_name"`
	MaxLeaves      int      `toml:"max_leaves"`
}

type traceConfig struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Output    string `toml:"output"`
	RingSize  int    `toml:"ring_size"`
	Heartbeat string `toml:"heartbeat"`
}

type procMacroConfig struct {
	Command []string `toml:"command"`
	Timeout string   `toml:"timeout"`
}

// timeout returns the per-request deadline of the server, or zero for the
// default.
func (p procMacroConfig) timeout() (time.Duration, error) {
	if strings.TrimSpace(p.Timeout) == "" {
		return 0, nil
	}
	return time.ParseDuration(p.Timeout)
}

// findConfig ищет rill.toml, поднимаясь от startDir к корню.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfig(path string) (rillConfig, error) {
	var cfg rillConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return rillConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return rillConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("expand", "edition") {
		if _, err := span.ParseEdition(strings.TrimSpace(cfg.Expand.Edition)); err != nil {
			return rillConfig{}, fmt.Errorf("%s: [expand].edition: %w", path, err)
		}
	}
	if meta.IsDefined("expand", "recursion_limit") && cfg.Expand.RecursionLimit <= 0 {
		return rillConfig{}, fmt.Errorf("%s: [expand].recursion_limit must be positive", path)
	}
	if meta.IsDefined("expand", "expansion_limit") && cfg.Expand.ExpansionLimit <= 0 {
		return rillConfig{}, fmt.Errorf("%s: [expand].expansion_limit must be positive", path)
	}
	if meta.IsDefined("expand", "jobs") && cfg.Expand.Jobs < 0 {
		return rillConfig{}, fmt.Errorf("%s: [expand].jobs must not be negative", path)
	}
	if meta.IsDefined("trace", "heartbeat") {
		if _, err := time.ParseDuration(cfg.Trace.Heartbeat); err != nil {
			return rillConfig{}, fmt.Errorf("%s: [trace].heartbeat: %w", path, err)
		}
	}
	for i, pm := range cfg.ProcMacros {
		if len(pm.Command) == 0 || strings.TrimSpace(pm.Command[0]) == "" {
			return rillConfig{}, fmt.Errorf("%s: [[proc_macro]] #%d: missing command", path, i+1)
		}
		if _, err := pm.timeout(); err != nil {
			return rillConfig{}, fmt.Errorf("%s: [[proc_macro]] #%d: timeout: %w", path, i+1, err)
		}
	}
	return cfg, nil
}

// resolveConfig loads the file named by --config, or the nearest
// rill.toml above the working directory. No file means defaults.
func resolveConfig(cmd *cobra.Command) (rillConfig, string, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return rillConfig{}, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	if explicit != "" {
		cfg, err := loadConfig(explicit)
		return cfg, explicit, err
	}
	path, ok, err := findConfig(".")
	if err != nil || !ok {
		return rillConfig{}, "", err
	}
	cfg, err := loadConfig(path)
	return cfg, path, err
}

// driverOptions merges the [expand] section with the command's flags;
// a flag set on the command line wins.
func driverOptions(cmd *cobra.Command, cfg rillConfig) (driver.Options, error) {
	var opts driver.Options
	flags := cmd.Flags()

	opts.RecursionLimit = cfg.Expand.RecursionLimit
	opts.ExpansionLimit = cfg.Expand.ExpansionLimit
	opts.Jobs = cfg.Expand.Jobs
	opts.MaxLeaves = cfg.Expand.MaxLeaves
	opts.CrateName = cfg.Expand.CrateName
	edition := cfg.Expand.Edition
	cfgFlags := cfg.Expand.Cfg

	if flags.Lookup("recursion-limit") != nil && flags.Changed("recursion-limit") {
		opts.RecursionLimit, _ = flags.GetInt("recursion-limit")
	}
	if flags.Lookup("expansion-limit") != nil && flags.Changed("expansion-limit") {
		opts.ExpansionLimit, _ = flags.GetInt("expansion-limit")
	}
	if flags.Lookup("jobs") != nil && flags.Changed("jobs") {
		opts.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Lookup("max-leaves") != nil && flags.Changed("max-leaves") {
		opts.MaxLeaves, _ = flags.GetInt("max-leaves")
	}
	if flags.Lookup("crate-name") != nil && flags.Changed("crate-name") {
		opts.CrateName, _ = flags.GetString("crate-name")
	}
	if flags.Lookup("edition") != nil && flags.Changed("edition") {
		edition, _ = flags.GetString("edition")
	}
	if flags.Lookup("cfg") != nil && flags.Changed("cfg") {
		// флаги дополняют файл, а не заменяют его
		extra, _ := flags.GetStringSlice("cfg")
		cfgFlags = append(append([]string(nil), cfgFlags...), extra...)
	}

	if strings.TrimSpace(edition) != "" {
		ed, err := span.ParseEdition(strings.TrimSpace(edition))
		if err != nil {
			return driver.Options{}, err
		}
		opts.Edition = ed
	} else {
		opts.Edition = span.EditionLatest
	}
	opts.Cfg = builtin.NewCfg(cfgFlags...)

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	opts.MaxDiagnostics = maxDiagnostics
	return opts, nil
}
