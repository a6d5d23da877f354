package driver

import (
	"runtime"
	"time"

	"rill/internal/builtin"
	"rill/internal/expand"
	"rill/internal/procmacro"
	"rill/internal/span"
)

// DefaultRecursionLimit bounds the nesting of expansions under one root.
const DefaultRecursionLimit = 128

// DefaultExpansionLimit bounds the number of calls expanded under one root.
const DefaultExpansionLimit = 1 << 16

// ProcMacroServer is one source of procedural macros.
type ProcMacroServer struct {
	// Expander runs the macros, usually a *procmacro.Client.
	Expander expand.ProcMacroExpander
	Macros   []procmacro.MacroInfo
}

// Options configure a Driver.
type Options struct {
	// RecursionLimit is the deepest chain of nested expansions allowed
	// under one root; the call past it is poisoned.
	RecursionLimit int
	// ExpansionLimit is the most calls one root may expand, its nested
	// calls included; every call past it is poisoned.
	ExpansionLimit int
	// Jobs limits parallel sibling expansions and files. GOMAXPROCS when
	// zero.
	Jobs             int
	ProcMacroTimeout time.Duration
	// Edition of the crate's own files; the zero value is 2015.
	Edition          span.Edition
	Cfg              *builtin.CfgOptions
	CrateName        string
	ProcMacros       []ProcMacroServer
	// MaxDiagnostics caps the diagnostics kept per file.
	MaxDiagnostics int
	// Timings adds a per-file timing diagnostic.
	Timings bool
	// MaxLeaves caps one declarative expansion; zero means no cap.
	MaxLeaves int
	// Progress receives per-file stage events when set.
	Progress ProgressSink
}

func (o Options) withDefaults() Options {
	if o.RecursionLimit <= 0 {
		o.RecursionLimit = DefaultRecursionLimit
	}
	if o.ExpansionLimit <= 0 {
		o.ExpansionLimit = DefaultExpansionLimit
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	if o.ProcMacroTimeout <= 0 {
		o.ProcMacroTimeout = procmacro.DefaultTimeout
	}
	if o.Cfg == nil {
		o.Cfg = builtin.NewCfg()
	}
	if o.CrateName == "" {
		o.CrateName = "crate"
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = 1000
	}
	return o
}
