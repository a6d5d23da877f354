package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"rill/internal/span"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok, err := findConfig(nested)
	if err != nil || !ok {
		t.Fatalf("findConfig: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[expand]
recursion_limit = 32
expansion_limit = 500
jobs = 2
edition = "2018"
cfg = ["test", "feature=fast"]
crate_name = "demo"

[trace]
level = "phase"
heartbeat = "250ms"

[[proc_macro]]
command = ["pm-server", "--stdio"]
timeout = "2s"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Expand.RecursionLimit != 32 || cfg.Expand.ExpansionLimit != 500 || cfg.Expand.Jobs != 2 || cfg.Expand.CrateName != "demo" {
		t.Errorf("expand = %+v", cfg.Expand)
	}
	if strings.Join(cfg.Expand.Cfg, ",") != "test,feature=fast" {
		t.Errorf("cfg = %v", cfg.Expand.Cfg)
	}
	if cfg.Trace.Level != "phase" || cfg.Trace.Heartbeat != "250ms" {
		t.Errorf("trace = %+v", cfg.Trace)
	}
	if len(cfg.ProcMacros) != 1 || cfg.ProcMacros[0].Command[0] != "pm-server" {
		t.Fatalf("proc macros = %+v", cfg.ProcMacros)
	}
	if d, err := cfg.ProcMacros[0].timeout(); err != nil || d != 2*time.Second {
		t.Errorf("timeout = %v, %v", d, err)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[expand]\nrecursion = 3\n", "unknown keys: expand.recursion"},
		{"bad edition", "[expand]\nedition = \"1999\"\n", "[expand].edition"},
		{"zero limit", "[expand]\nrecursion_limit = 0\n", "must be positive"},
		{"zero expansion limit", "[expand]\nexpansion_limit = 0\n", "expansion_limit must be positive"},
		{"negative jobs", "[expand]\njobs = -1\n", "must not be negative"},
		{"bad heartbeat", "[trace]\nheartbeat = \"soon\"\n", "[trace].heartbeat"},
		{"empty command", "[[proc_macro]]\ncommand = []\n", "missing command"},
		{"bad timeout", "[[proc_macro]]\ncommand = [\"x\"]\ntimeout = \"long\"\n", "timeout"},
		{"syntax", "[expand\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := loadConfig(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func newOptionsCmd() *cobra.Command {
	root := &cobra.Command{Use: "rill"}
	root.PersistentFlags().Int("max-diagnostics", 100, "")
	cmd := &cobra.Command{Use: "expand", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Int("jobs", 0, "")
	cmd.Flags().Int("recursion-limit", 128, "")
	cmd.Flags().Int("expansion-limit", 1<<16, "")
	cmd.Flags().String("edition", "", "")
	cmd.Flags().StringSlice("cfg", nil, "")
	root.AddCommand(cmd)
	return cmd
}

func TestDriverOptionsFlagsWin(t *testing.T) {
	cfg := rillConfig{Expand: expandConfig{RecursionLimit: 32, ExpansionLimit: 500, Jobs: 2, Edition: "2018", Cfg: []string{"test"}}}

	cmd := newOptionsCmd()
	if err := cmd.ParseFlags([]string{"--jobs=7", "--cfg=fast", "--expansion-limit=40"}); err != nil {
		t.Fatal(err)
	}
	opts, err := driverOptions(cmd, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Jobs != 7 {
		t.Errorf("jobs = %d, want the flag value", opts.Jobs)
	}
	if opts.RecursionLimit != 32 {
		t.Errorf("recursion limit = %d, want the file value", opts.RecursionLimit)
	}
	if opts.ExpansionLimit != 40 {
		t.Errorf("expansion limit = %d, want the flag value", opts.ExpansionLimit)
	}
	if opts.Edition != span.Edition2018 {
		t.Errorf("edition = %v", opts.Edition)
	}
	if !opts.Cfg.Enabled("test", "") || !opts.Cfg.Enabled("fast", "") {
		t.Errorf("cfg flags from file and command line must both be set")
	}
	if opts.MaxDiagnostics != 100 {
		t.Errorf("max diagnostics = %d", opts.MaxDiagnostics)
	}
}

func TestDriverOptionsDefaults(t *testing.T) {
	opts, err := driverOptions(newOptionsCmd(), rillConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Edition != span.EditionLatest || opts.RecursionLimit != 0 || opts.Jobs != 0 {
		t.Errorf("opts = %+v", opts)
	}

	cmd := newOptionsCmd()
	if err := cmd.ParseFlags([]string{"--edition=3000"}); err != nil {
		t.Fatal(err)
	}
	if _, err := driverOptions(cmd, rillConfig{}); err == nil {
		t.Error("expected an error for an unknown edition")
	}
}
