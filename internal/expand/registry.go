// Package expand owns macro calls: it interns call locations into ids,
// runs the expander a call's definition selects, reparses the output and
// maps ranges of the result back to what the user wrote.
//
// Expansion is demand-driven. Registry.Expand computes one call and caches
// the result; calls found inside the result are left to the caller (see
// package driver). Concurrent requests for the same id share a single
// computation.
package expand

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/singleflight"

	"rill/internal/builtin"
	"rill/internal/diag"
	"rill/internal/hygiene"
	"rill/internal/mbe"
	"rill/internal/parser"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

// ProcMacroExpander runs procedural macros; *procmacro.Client is one.
type ProcMacroExpander interface {
	Expand(ctx context.Context, macro string, input, attr *tt.Subtree, callSite span.Span) (*tt.Subtree, error)
}

// Options configure a Registry.
type Options struct {
	Edition span.Edition
	Cfg     *builtin.CfgOptions
	// ProcMacros are indexed by MacroDefID.Server.
	ProcMacros []ProcMacroExpander
	// MaxLeaves caps the output of one declarative expansion.
	MaxLeaves int
	// CrateName starts every module_path!; "crate" when empty.
	CrateName string
	// EagerLimit bounds nesting inside eager arguments; 128 when zero.
	EagerLimit int
	// ProcMacroTimeout bounds one proc-macro call; no bound when zero.
	ProcMacroTimeout time.Duration
}

// DefaultEagerLimit is the nesting bound of eager arguments.
const DefaultEagerLimit = 128

// FileTree is a parsed real or macro file.
type FileTree struct {
	File   span.HirFileID
	Root   *syntax.Node
	AstIDs *syntax.AstIDMap
	// Spans is set for real files only.
	Spans  *span.RealSpanMap
	Errors []parser.SyntaxError
	// Diagnostics are the lexer and parser reports of a real file.
	Diagnostics []diag.Diagnostic
}

// Node returns the anchor node with the given id.
func (f *FileTree) Node(id span.AstID) *syntax.Node {
	return f.AstIDs.Get(id)
}

// Registry interns macro calls and caches their expansions. It is safe for
// concurrent use.
type Registry struct {
	files *source.FileSet
	hyg   *hygiene.Table
	opts  Options

	mu       sync.RWMutex
	locs     []MacroCallLoc
	ids      map[MacroCallLoc]span.MacroCallID
	real     map[source.FileID]*FileTree
	results  map[span.MacroCallID]ExpandResult[*ExpansionInfo]
	poisoned map[span.MacroCallID]*ExpandError
	eager    map[Fingerprint]*tt.Subtree
	rules    map[MacroDefID]*mbe.Macro

	flight singleflight.Group
	runs   atomic.Int64
}

// NewRegistry creates an empty registry over files. Contexts created by
// expansions are interned in hyg.
func NewRegistry(files *source.FileSet, hyg *hygiene.Table, opts Options) *Registry {
	if opts.CrateName == "" {
		opts.CrateName = "crate"
	}
	if opts.EagerLimit <= 0 {
		opts.EagerLimit = DefaultEagerLimit
	}
	return &Registry{
		files:    files,
		hyg:      hyg,
		opts:     opts,
		ids:      make(map[MacroCallLoc]span.MacroCallID),
		real:     make(map[source.FileID]*FileTree),
		results:  make(map[span.MacroCallID]ExpandResult[*ExpansionInfo]),
		poisoned: make(map[span.MacroCallID]*ExpandError),
		eager:    make(map[Fingerprint]*tt.Subtree),
		rules:    make(map[MacroDefID]*mbe.Macro),
	}
}

// Files returns the file set the registry reads from.
func (r *Registry) Files() *source.FileSet { return r.files }

// Hygiene returns the context table expansions mark tokens in.
func (r *Registry) Hygiene() *hygiene.Table { return r.hyg }

// Edition is the edition of real files.
func (r *Registry) Edition() span.Edition { return r.opts.Edition }

// Intern returns the id of loc, allocating one on first sight. Equal locs
// get equal ids.
func (r *Registry) Intern(loc MacroCallLoc) span.MacroCallID {
	r.mu.RLock()
	id, ok := r.ids[loc]
	r.mu.RUnlock()
	if ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[loc]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(r.locs) + 1)
	if err != nil {
		panic(fmt.Errorf("macro call id overflow: %w", err))
	}
	id = span.MacroCallID(n)
	r.locs = append(r.locs, loc)
	r.ids[loc] = id
	return id
}

// Lookup returns the loc interned under id.
func (r *Registry) Lookup(id span.MacroCallID) (MacroCallLoc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == span.NoMacroCall || int(id) > len(r.locs) {
		return MacroCallLoc{}, false
	}
	return r.locs[id-1], true
}

// Len is the number of interned calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locs)
}

// Runs counts expander invocations, cache hits excluded.
func (r *Registry) Runs() int64 { return r.runs.Load() }

// Poison marks id as failed for good: Expand returns err without running
// anything. The first error recorded wins.
func (r *Registry) Poison(id span.MacroCallID, err *ExpandError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.poisoned[id]; !ok {
		r.poisoned[id] = err
	}
}

// Poisoned returns the error id was poisoned with.
func (r *Registry) Poisoned(id span.MacroCallID) (*ExpandError, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	err, ok := r.poisoned[id]
	return err, ok
}

// File returns the parsed tree of a real file or of an expansion. Macro
// files exist only once their call has been expanded.
func (r *Registry) File(ctx context.Context, file span.HirFileID) (*FileTree, error) {
	if id, ok := file.MacroCall(); ok {
		r.mu.RLock()
		res, done := r.results[id]
		r.mu.RUnlock()
		if !done {
			res = r.Expand(ctx, id)
		}
		if res.Value == nil {
			return nil, fmt.Errorf("macro file %s has no expansion", file)
		}
		return res.Value.Tree, nil
	}
	fid, _ := file.FileID()
	r.mu.RLock()
	ft, ok := r.real[fid]
	r.mu.RUnlock()
	if ok {
		return ft, nil
	}
	v, err, _ := r.flight.Do("file:"+strconv.FormatUint(uint64(fid), 10), func() (any, error) {
		r.mu.RLock()
		ft, ok := r.real[fid]
		r.mu.RUnlock()
		if ok {
			return ft, nil
		}
		f := r.files.Get(fid)
		if f == nil {
			return nil, fmt.Errorf("unknown file %d", fid)
		}
		bag := diag.NewBag(math.MaxInt)
		res := parser.ParseFile(f, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		ids := syntax.NewAstIDMap(res.Root)
		ft = &FileTree{
			File:        file,
			Root:        res.Root,
			AstIDs:      ids,
			Spans:       span.NewRealSpanMap(fid, span.RootContext(r.opts.Edition), ids.Anchors()),
			Errors:      res.Errors,
			Diagnostics: bag.Items(),
		}
		r.mu.Lock()
		r.real[fid] = ft
		r.mu.Unlock()
		return ft, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FileTree), nil
}

// SpanFunc returns the span assignment for token ranges of file.
func (r *Registry) SpanFunc(ctx context.Context, file span.HirFileID) (syntaxbridge.SpanFunc, error) {
	if id, ok := file.MacroCall(); ok {
		res := r.Expand(ctx, id)
		if res.Value == nil {
			return nil, fmt.Errorf("macro file %s has no expansion", file)
		}
		return res.Value.spanFor, nil
	}
	ft, err := r.File(ctx, file)
	if err != nil {
		return nil, err
	}
	return ft.Spans.SpanFor, nil
}

// node resolves an ast id to its node.
func (r *Registry) node(ctx context.Context, id span.FileAstID) (*syntax.Node, error) {
	ft, err := r.File(ctx, id.File)
	if err != nil {
		return nil, err
	}
	n := ft.Node(id.Ast)
	if n == nil {
		return nil, fmt.Errorf("no node %s", id)
	}
	return n, nil
}

// macroRules returns the parsed rules of a declarative definition.
func (r *Registry) macroRules(ctx context.Context, def MacroDefID) (*mbe.Macro, error) {
	r.mu.RLock()
	m, ok := r.rules[def]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}
	n, err := r.node(ctx, def.Ast)
	if err != nil {
		return nil, err
	}
	body := n.ChildOfKind(syntax.TokenTree)
	if n.Kind() != syntax.MacroRules || body == nil {
		return nil, fmt.Errorf("%s is not a macro_rules! definition", def.Ast)
	}
	spanFor, err := r.SpanFunc(ctx, def.Ast.File)
	if err != nil {
		return nil, err
	}
	m = mbe.Parse(syntaxbridge.Unwrap(syntaxbridge.SyntaxToTokenTree(body, spanFor, nil)))
	r.mu.Lock()
	if prev, ok := r.rules[def]; ok {
		m = prev
	} else {
		r.rules[def] = m
	}
	r.mu.Unlock()
	return m, nil
}
