// Package driver expands every macro call of a file. It resolves call
// names against textual macro_rules! scopes, builtins and proc-macro
// servers, expands roots in parallel, follows the calls found in each
// expansion down to a recursion limit and renders the expanded text.
package driver

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"rill/internal/diag"
	"rill/internal/expand"
	"rill/internal/hygiene"
	"rill/internal/observ"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/trace"
)

// Driver owns a registry and walks files through it. Safe for concurrent
// use.
type Driver struct {
	files *source.FileSet
	reg   *expand.Registry
	opts  Options
	procs map[procKey]int
	roots *rootCache
}

// New creates a driver over files.
func New(files *source.FileSet, opts Options) *Driver {
	opts = opts.withDefaults()
	expanders := make([]expand.ProcMacroExpander, len(opts.ProcMacros))
	procs := make(map[procKey]int)
	for i, srv := range opts.ProcMacros {
		expanders[i] = srv.Expander
		for _, m := range srv.Macros {
			k := procKey{name: m.Name, kind: m.Kind}
			// первый сервер, объявивший макрос, побеждает
			if _, dup := procs[k]; !dup {
				procs[k] = i
			}
		}
	}
	reg := expand.NewRegistry(files, hygiene.NewTable(), expand.Options{
		Edition:    opts.Edition,
		Cfg:        opts.Cfg,
		ProcMacros: expanders,
		MaxLeaves:  opts.MaxLeaves,
		CrateName:  opts.CrateName,
		EagerLimit: opts.RecursionLimit,

		ProcMacroTimeout: opts.ProcMacroTimeout,
	})
	return &Driver{files: files, reg: reg, opts: opts, procs: procs, roots: newRootCache(64)}
}

func (d *Driver) Files() *source.FileSet     { return d.files }
func (d *Driver) Registry() *expand.Registry { return d.reg }
func (d *Driver) Options() Options           { return d.opts }

// Expansion is one call and the expansions of the calls in its output.
type Expansion struct {
	// Call is NoMacroCall when the name did not resolve.
	Call     span.MacroCallID
	Name     string
	Kind     expand.CallKind
	ExpandTo expand.ExpandTo
	// Range is where the call is written in its parent file. For
	// attributes and derives it is the annotated item.
	Range    source.TextRange
	Depth    int
	Info     *expand.ExpansionInfo
	Err      *expand.ExpandError
	Children []*Expansion
}

// Text is the expanded output with nested calls expanded too. A call that
// could not be expanded yields its dummy fragment.
func (e *Expansion) Text() string {
	if e.Info == nil {
		return dummyText(e.ExpandTo)
	}
	return render(e.Info.Text(), e.Children)
}

// Walk visits e and its descendants in pre-order until fn returns false.
func (e *Expansion) Walk(fn func(*Expansion) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// root is the state of one expansion root. The depth and step bounds are
// per root, so a runaway chain under one root never poisons another.
type root struct {
	limit  int
	budget int64
	steps  atomic.Int64

	mu       sync.Mutex
	diags    []diag.Diagnostic
	overflow *expand.ExpandError
}

func (rt *root) report(d diag.Diagnostic) {
	rt.mu.Lock()
	rt.diags = append(rt.diags, d)
	rt.mu.Unlock()
}

// overflowed records err and reports whether it is the first overflow of
// the root.
func (rt *root) overflowed(err *expand.ExpandError) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.overflow != nil {
		return false
	}
	rt.overflow = err
	return true
}

// FileResult is a file with all its macro calls expanded.
type FileResult struct {
	File  source.FileID
	Path  string
	Tree  *expand.FileTree
	Roots []*Expansion
	// Text is the file with every call replaced by its expansion and
	// derive output appended after the item.
	Text   string
	Bag    *diag.Bag
	Timing observ.Report
}

// ExpandFile expands every call of file. Roots are expanded in parallel;
// roots already walked by this driver are served from its cache.
func (d *Driver) ExpandFile(ctx context.Context, file source.FileID) (*FileResult, error) {
	f := d.files.Get(file)
	if f == nil {
		return nil, fmt.Errorf("unknown file %d", file)
	}
	ctx, sp := trace.Start(ctx, trace.ScopeDriver, "expand-file")
	sp.WithExtra("path", f.Path)

	started := time.Now()
	fail := func(err error) (*FileResult, error) {
		sp.End(err.Error())
		d.emit(Event{File: f.Path, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return nil, err
	}
	timer := observ.NewTimer()
	bag := diag.NewBag(d.opts.MaxDiagnostics)

	d.emit(Event{File: f.Path, Stage: StageParse, Status: StatusWorking})
	idx := timer.Begin(string(StageParse))
	ft, err := d.reg.File(ctx, span.RealFile(file))
	if err != nil {
		return fail(err)
	}
	for _, dg := range ft.Diagnostics {
		bag.Add(dg)
	}
	timer.End(idx, "")

	d.emit(Event{File: f.Path, Stage: StageScan, Status: StatusWorking})
	idx = timer.Begin(string(StageScan))
	sites, err := d.scan(ctx, ft.File, hygiene.NewScopes[expand.MacroDefID]())
	if err != nil {
		return fail(err)
	}
	timer.End(idx, strconv.Itoa(len(sites))+" calls")

	d.emit(Event{File: f.Path, Stage: StageExpand, Status: StatusWorking})
	idx = timer.Begin(string(StageExpand))
	roots := make([]*Expansion, len(sites))
	diags := make([][]diag.Diagnostic, len(sites))
	g := new(errgroup.Group)
	g.SetLimit(d.opts.Jobs)
	for i, s := range sites {
		g.Go(func() error {
			roots[i], diags[i] = d.expandRoot(ctx, ft.File, s)
			return nil
		})
	}
	_ = g.Wait()
	for _, ds := range diags {
		for _, dg := range ds {
			bag.Add(dg)
		}
	}
	timer.End(idx, "")

	d.emit(Event{File: f.Path, Stage: StageRender, Status: StatusWorking})
	idx = timer.Begin(string(StageRender))
	text := render(ft.Root.Text(), roots)
	timer.End(idx, "")

	report := timer.Report()
	if d.opts.Timings {
		var calls int64
		for _, r := range roots {
			r.Walk(func(*Expansion) bool { calls++; return true })
		}
		appendTimingDiagnostic(bag, file, timingPayload{Path: f.Path, Calls: calls, TotalMS: report.TotalMS, Phases: report.Phases})
	}
	bag.Dedup()
	bag.Sort()
	res := &FileResult{
		File:   file,
		Path:   f.Path,
		Tree:   ft,
		Roots:  roots,
		Text:   text,
		Bag:    bag,
		Timing: report,
	}
	sp.WithExtra("roots", strconv.Itoa(len(roots))).End("")
	if err := ctx.Err(); err != nil {
		d.emit(Event{File: f.Path, Stage: StageExpand, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return res, err
	}
	d.emit(Event{File: f.Path, Stage: StageRender, Status: StatusDone, Elapsed: time.Since(started)})
	return res, nil
}

// expandRoot walks one root. Walks of resolved roots are cached, so a
// second query returns the first walk, recursion errors included, without
// expanding anything.
func (d *Driver) expandRoot(ctx context.Context, file span.HirFileID, s site) (*Expansion, []diag.Diagnostic) {
	var key span.MacroCallID
	if s.resolved {
		key = d.reg.Intern(s.loc)
		if c, ok := d.roots.Get(key); ok {
			trace.Mark(ctx, trace.ScopeRoot, "root-cache-hit", s.name)
			return c.tree, c.diags
		}
	}
	ctx, sp := trace.Start(ctx, trace.ScopeRoot, "root:"+s.name)

	rt := &root{limit: d.opts.RecursionLimit, budget: int64(d.opts.ExpansionLimit)}
	e := d.expandSite(ctx, rt, file, s, 0)

	detail := ""
	if rt.overflow != nil {
		detail = rt.overflow.Error()
		trace.Fail(ctx, trace.ScopeRoot, "recursion-limit", rt.overflow)
	}
	sp.WithExtra("steps", strconv.FormatInt(rt.steps.Load(), 10)).End(detail)
	if s.resolved && ctx.Err() == nil {
		d.roots.Put(key, e, rt.diags, rt.overflow)
	}
	return e, rt.diags
}

// RootError returns the recursion error of the cached walk of root id.
func (d *Driver) RootError(id span.MacroCallID) (*expand.ExpandError, bool) {
	c, ok := d.roots.Get(id)
	if !ok || c.overflow == nil {
		return nil, false
	}
	return c.overflow, true
}

// expandSite runs ResolveDefinition → ExtractArgument → Expand → Reparse →
// ScanForNestedCalls for one call, then recurses into the nested calls.
func (d *Driver) expandSite(ctx context.Context, rt *root, file span.HirFileID, s site, depth int) *Expansion {
	e := &Expansion{Name: s.name, Kind: s.kind, ExpandTo: s.to, Range: s.rng, Depth: depth}
	if !s.resolved {
		e.Err = &expand.ExpandError{
			Kind: expand.Unresolved,
			Msg:  fmt.Sprintf("cannot find %s `%s` in this scope", s.kind.Noun(), s.name),
			Sp:   s.loc.CallSite,
		}
		rt.report(d.unresolved(ctx, file, s, e.Err))
		return e
	}
	if ctx.Err() != nil {
		return e
	}

	loc := s.loc
	var eagerErrs []*expand.ExpandError
	if s.eager {
		loc, eagerErrs = d.reg.ExpandEager(ctx, loc, d.resolver(s.visible))
	}
	id := d.reg.Intern(loc)
	e.Call = id
	for _, err := range eagerErrs {
		rt.report(d.reg.Diagnostic(ctx, id, err))
	}
	switch steps := rt.steps.Add(1); {
	case depth >= rt.limit:
		d.reg.Poison(id, &expand.ExpandError{
			Kind: expand.RecursionOverflow,
			Msg:  fmt.Sprintf("recursion limit of %d reached while expanding `%s!`", rt.limit, s.name),
			Sp:   loc.CallSite,
		})
	case steps > rt.budget:
		d.reg.Poison(id, &expand.ExpandError{
			Kind: expand.RecursionOverflow,
			Msg:  fmt.Sprintf("expansion limit of %d calls reached while expanding `%s!`", rt.budget, s.name),
			Sp:   loc.CallSite,
		})
	}

	res := d.reg.Expand(ctx, id)
	e.Info, e.Err = res.Value, res.Err
	if res.Err != nil {
		if res.Err.Kind == expand.RecursionOverflow {
			// один отчёт на корень, остальные вызовы за пределом молча
			if rt.overflowed(res.Err) {
				rt.report(d.reg.Diagnostic(ctx, id, res.Err))
			}
			return e
		}
		rt.report(d.reg.Diagnostic(ctx, id, res.Err))
	}
	if res.Value == nil {
		return e
	}

	out := span.MacroFile(id)
	nested, err := d.scan(ctx, out, s.visible.Snapshot())
	if err != nil {
		return e
	}
	e.Children = d.expandAll(ctx, rt, out, nested, depth+1)
	return e
}

// expandAll expands sibling calls in parallel. Siblings are independent;
// only a parent and its children are ordered.
func (d *Driver) expandAll(ctx context.Context, rt *root, file span.HirFileID, sites []site, depth int) []*Expansion {
	out := make([]*Expansion, len(sites))
	if len(sites) == 1 {
		out[0] = d.expandSite(ctx, rt, file, sites[0], depth)
		return out
	}
	g := new(errgroup.Group)
	g.SetLimit(d.opts.Jobs)
	for i, s := range sites {
		g.Go(func() error {
			out[i] = d.expandSite(ctx, rt, file, s, depth)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// unresolved locates the diagnostic of a call whose name did not resolve.
func (d *Driver) unresolved(ctx context.Context, file span.HirFileID, s site, err *expand.ExpandError) diag.Diagnostic {
	fr, ok := d.reg.OriginalRange(ctx, s.loc.CallSite)
	if !ok {
		fr, _ = d.reg.MapFileRangeUp(ctx, file, s.rng)
	}
	return diag.NewError(err.Code(), fr, err.Msg)
}
