package expand_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"rill/internal/builtin"
	"rill/internal/diag"
	"rill/internal/expand"
	"rill/internal/hygiene"
	"rill/internal/parser"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/testkit"
	"rill/internal/tt"
)

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

type fixture struct {
	t   *testing.T
	src string
	fs  *source.FileSet
	fid source.FileID
	reg *expand.Registry
	ft  *expand.FileTree
}

func newFixture(t *testing.T, src string, opts expand.Options) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddVirtual("main.rl", []byte(src))
	reg := expand.NewRegistry(fs, hygiene.NewTable(), opts)
	ft, err := reg.File(context.Background(), span.RealFile(fid))
	if err != nil {
		t.Fatal(err)
	}
	if len(ft.Errors) > 0 {
		t.Fatalf("fixture does not parse: %v", ft.Errors)
	}
	if err := testkit.CheckSpanInvariants(ft, fs.Get(fid)); err != nil {
		t.Fatal(err)
	}
	return &fixture{t: t, src: src, fs: fs, fid: fid, reg: reg, ft: ft}
}

func (f *fixture) astID(n *syntax.Node) span.FileAstID {
	f.t.Helper()
	id, ok := f.ft.AstIDs.IDOf(n)
	if !ok {
		f.t.Fatalf("%s is not an anchor", n.Kind())
	}
	return span.FileAstID{File: span.RealFile(f.fid), Ast: id}
}

func (f *fixture) rules(name string) expand.MacroDefID {
	f.t.Helper()
	for _, n := range syntax.Descendants(f.ft.Root, syntax.MacroRules) {
		if syntax.NameText(n) == name {
			return expand.MacroDefID{Kind: expand.Declarative, Ast: f.astID(n), Name: name}
		}
	}
	f.t.Fatalf("no macro_rules! %s", name)
	return expand.MacroDefID{}
}

// call finds the i-th macro call named name.
func (f *fixture) call(name string, i int) *syntax.Node {
	f.t.Helper()
	for _, n := range syntax.Descendants(f.ft.Root, syntax.MacroCall) {
		if syntax.PathName(syntax.MacroCallPath(n)) == name {
			if i == 0 {
				return n
			}
			i--
		}
	}
	f.t.Fatalf("no call %s!", name)
	return nil
}

func (f *fixture) fnLike(call *syntax.Node, def expand.MacroDefID) expand.MacroCallLoc {
	return expand.MacroCallLoc{
		Def: def,
		Kind: expand.MacroCallKind{
			Kind:     expand.CallFnLike,
			Ast:      f.astID(call),
			ExpandTo: expand.ExpandToFor(call),
		},
		CallSite: f.ft.Spans.SpanFor(call.TrimmedRange()),
	}
}

func (f *fixture) item(kind syntax.NodeKind) *syntax.Node {
	f.t.Helper()
	items := syntax.Descendants(f.ft.Root, kind)
	if len(items) == 0 {
		f.t.Fatalf("no %s", kind)
	}
	return items[0]
}

func (f *fixture) attrCall(item *syntax.Node, kind expand.CallKind, attr int, def expand.MacroDefID) expand.MacroCallLoc {
	a := syntax.Attrs(item)[attr]
	return expand.MacroCallLoc{
		Def: def,
		Kind: expand.MacroCallKind{
			Kind:      kind,
			Ast:       f.astID(item),
			ExpandTo:  expand.Items,
			AttrIndex: attr,
		},
		CallSite: f.ft.Spans.SpanFor(a.TrimmedRange()),
	}
}

func (f *fixture) rangeOf(text string) source.FileRange {
	f.t.Helper()
	i := strings.Index(f.src, text)
	if i < 0 {
		f.t.Fatalf("%q not in source", text)
	}
	return source.FileRange{File: f.fid, Range: source.NewRange(uint32(i), uint32(len(text)))}
}

func (f *fixture) nodeRange(n *syntax.Node) source.FileRange {
	return source.FileRange{File: f.fid, Range: n.TrimmedRange()}
}

func builtinFn(id builtin.FnID) expand.MacroDefID {
	return expand.MacroDefID{Kind: expand.BuiltinFn, Builtin: uint8(id), Name: id.String()}
}

func TestExpandToFor(t *testing.T) {
	src := `
m!{}
mod inner { m!(); }
fn f() -> m!() {
    let x = m!();
    m!();
    let m!() = 1;
    g(m!());
}
`
	want := []expand.ExpandTo{expand.Items, expand.Items, expand.Type, expand.Expr, expand.Statements, expand.Pattern, expand.Expr}
	root := parser.ParseText(src, parser.SourceFileEntry).Root
	calls := syntax.Descendants(root, syntax.MacroCall)
	if len(calls) != len(want) {
		t.Fatalf("found %d calls, want %d", len(calls), len(want))
	}
	for i, c := range calls {
		if got := expand.ExpandToFor(c); got != want[i] {
			t.Errorf("call %d (%s under %s): got %s, want %s", i, c.Text(), c.Parent().Kind(), got, want[i])
		}
	}
}

func TestInternIsStructural(t *testing.T) {
	f := newFixture(t, "fn f() { a!(); a!(); }", expand.Options{})
	def := builtinFn(builtin.FnStringify)
	first := f.fnLike(f.call("a", 0), def)
	second := f.fnLike(f.call("a", 1), def)

	id1 := f.reg.Intern(first)
	if again := f.reg.Intern(first); again != id1 {
		t.Errorf("equal locs got ids %s and %s", id1, again)
	}
	id2 := f.reg.Intern(second)
	if id2 == id1 {
		t.Errorf("different call sites share id %s", id1)
	}
	moved := first
	moved.CallSite.Range = moved.CallSite.Range.Add(1)
	if f.reg.Intern(moved) == id1 {
		t.Errorf("a loc differing only in call site reused the id")
	}
	if loc, ok := f.reg.Lookup(id2); !ok || loc != second {
		t.Errorf("Lookup(%s) = %+v, %v", id2, loc, ok)
	}
	if _, ok := f.reg.Lookup(span.NoMacroCall); ok {
		t.Errorf("Lookup of the zero id succeeded")
	}
}

func TestConcurrentInternYieldsOneID(t *testing.T) {
	f := newFixture(t, "fn f() { a!(); }", expand.Options{})
	loc := f.fnLike(f.call("a", 0), builtinFn(builtin.FnStringify))
	ids := make([]span.MacroCallID, 64)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = f.reg.Intern(loc)
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("ids differ: %v", ids)
		}
	}
	if f.reg.Len() != 1 {
		t.Errorf("Len = %d", f.reg.Len())
	}
}

const doubleSrc = `macro_rules! double { ($e:expr) => { $e * 2 }; }
fn main() { let x = double!(1 + 2); }
`

func TestExpandDeclarative(t *testing.T) {
	f := newFixture(t, doubleSrc, expand.Options{})
	ctx := context.Background()
	call := f.call("double", 0)
	id := f.reg.Intern(f.fnLike(call, f.rules("double")))

	res := f.reg.Expand(ctx, id)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	info := res.Value
	if got := stripSpace(info.Text()); got != "(1+2)*2" {
		t.Errorf("got %q", got)
	}
	if info.Tree.Root.Kind() != syntax.ExprRoot {
		t.Errorf("root = %s", info.Tree.Root.Kind())
	}
	if info.Tree.File != span.MacroFile(id) {
		t.Errorf("file = %s", info.Tree.File)
	}
	defRange := f.nodeRange(f.item(syntax.MacroRules))
	if err := testkit.CheckExpansionSpans(ctx, f.reg, info, f.nodeRange(call), defRange); err != nil {
		t.Error(err)
	}
}

func TestRangeMapping(t *testing.T) {
	f := newFixture(t, doubleSrc, expand.Options{})
	ctx := context.Background()
	id := f.reg.Intern(f.fnLike(f.call("double", 0), f.rules("double")))
	info := f.reg.Expand(ctx, id).Value
	text := info.Text()

	two := strings.LastIndex(text, "2")
	sp, ok := info.MapRangeUp(source.NewRange(uint32(two), 1))
	if !ok {
		t.Fatal("no span for the `2` of the transcriber")
	}
	fr, ok := f.reg.OriginalRange(ctx, sp)
	def := f.nodeRange(f.item(syntax.MacroRules))
	if !ok || f.fs.Text(fr) != "2" || !def.Range.ContainsRange(fr.Range) {
		t.Errorf("`2` maps to %v (%q)", fr, f.fs.Text(fr))
	}

	arg := f.rangeOf("1")
	down := f.reg.MapFileRangeDown(ctx, id, arg)
	if len(down) != 1 || text[down[0].Start:down[0].End] != "1" {
		t.Errorf("argument `1` maps down to %v", down)
	}
	up, ok := f.reg.MapFileRangeUp(ctx, span.MacroFile(id), down[0])
	if !ok || up != arg {
		t.Errorf("round trip gives %v, want %v", up, arg)
	}
	if call, ok := f.reg.OriginalCallRange(ctx, id); !ok || f.fs.Text(call) != "double!(1 + 2)" {
		t.Errorf("call range %v (%q)", call, f.fs.Text(call))
	}
}

func TestConcurrentExpandRunsOnce(t *testing.T) {
	f := newFixture(t, doubleSrc, expand.Options{})
	id := f.reg.Intern(f.fnLike(f.call("double", 0), f.rules("double")))
	results := make([]*expand.ExpansionInfo, 32)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.reg.Expand(context.Background(), id).Value
		}(i)
	}
	wg.Wait()
	if f.reg.Runs() != 1 {
		t.Errorf("expander ran %d times", f.reg.Runs())
	}
	for _, r := range results {
		if r != results[0] {
			t.Fatalf("callers got different results")
		}
	}
}

func TestMatchFailureYieldsDummy(t *testing.T) {
	src := `macro_rules! one { (1) => { 1 }; }
fn main() { let x = one!(2); }
`
	f := newFixture(t, src, expand.Options{})
	id := f.reg.Intern(f.fnLike(f.call("one", 0), f.rules("one")))
	res := f.reg.Expand(context.Background(), id)
	if res.Err == nil || res.Err.Kind != expand.MatchFailure {
		t.Fatalf("err = %v", res.Err)
	}
	if res.Err.Code() != diag.MacroMatchFailure {
		t.Errorf("code = %s", res.Err.Code())
	}
	if got := res.Value.Text(); got != "false" {
		t.Errorf("dummy = %q", got)
	}
}

func TestHygieneMarks(t *testing.T) {
	src := `macro_rules! bind { ($e:expr) => { let x = $e; }; }
fn main() { bind!(y); }
`
	f := newFixture(t, src, expand.Options{})
	id := f.reg.Intern(f.fnLike(f.call("bind", 0), f.rules("bind")))
	info := f.reg.Expand(context.Background(), id).Value
	if info.Tree.Root.Kind() != syntax.MacroStmts {
		t.Fatalf("root = %s", info.Tree.Root.Kind())
	}
	ctxOf := map[string]span.SyntaxContext{}
	info.Output.Walk(nil, func(l tt.Leaf) {
		if id, ok := l.(tt.Ident); ok {
			ctxOf[id.Text] = id.Sp.Ctx
		}
	})
	m, ok := f.reg.Hygiene().OuterMark(ctxOf["x"])
	if !ok || m.Call != id || m.Transparency != hygiene.SemiTransparent {
		t.Errorf("x: mark %+v, %v", m, ok)
	}
	if !ctxOf["y"].IsRoot() {
		t.Errorf("argument token y got context %s", f.reg.Hygiene().Describe(ctxOf["y"]))
	}
}

func TestBuiltinFnMacros(t *testing.T) {
	src := `mod inner {
    fn f() {
        let s = stringify!(a + b);
        let p = module_path!();
        let l = line!();
    }
}
`
	f := newFixture(t, src, expand.Options{CrateName: "app"})
	ctx := context.Background()
	tests := []struct {
		name string
		id   builtin.FnID
		want string
	}{
		{"stringify", builtin.FnStringify, `"a + b"`},
		{"module_path", builtin.FnModulePath, `"app::inner"`},
		{"line", builtin.FnLine, `5u32`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			call := f.call(tc.name, 0)
			id := f.reg.Intern(f.fnLike(call, builtinFn(tc.id)))
			res := f.reg.Expand(ctx, id)
			if res.Err != nil {
				t.Fatal(res.Err)
			}
			if got := res.Value.Text(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			lit := res.Value.Output.Children[0]
			if st, ok := lit.(*tt.Subtree); ok {
				lit = st.Children[0]
			}
			m, ok := f.reg.Hygiene().OuterMark(lit.FirstSpan().Ctx)
			if !ok || m.Call != id || m.Transparency != hygiene.Transparent {
				t.Errorf("mark = %+v, %v", m, ok)
			}
			if err := testkit.CheckExpansionSpans(ctx, f.reg, res.Value, f.nodeRange(call)); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCompileErrorDiagnostic(t *testing.T) {
	f := newFixture(t, `compile_error!("no wasm");`, expand.Options{})
	ctx := context.Background()
	id := f.reg.Intern(f.fnLike(f.call("compile_error", 0), builtinFn(builtin.FnCompileError)))
	res := f.reg.Expand(ctx, id)
	if res.Err == nil || !res.Err.User || res.Err.Msg != "no wasm" {
		t.Fatalf("err = %+v", res.Err)
	}
	d := f.reg.Diagnostic(ctx, id, res.Err)
	if d.Code != diag.MacroCompileError || d.Primary.File != f.fid {
		t.Errorf("diagnostic = %+v", d)
	}
	if !strings.Contains(f.fs.Text(d.Primary), "compile_error") {
		t.Errorf("primary %q", f.fs.Text(d.Primary))
	}
}

func TestDeriveCensorsAttribute(t *testing.T) {
	f := newFixture(t, "#[derive(Clone)]\nstruct P { x: u8 }\n", expand.Options{})
	st := f.item(syntax.Struct)
	def := expand.MacroDefID{Kind: expand.BuiltinDerive, Builtin: uint8(builtin.DeriveClone), Name: "Clone"}
	id := f.reg.Intern(f.attrCall(st, expand.CallDerive, 0, def))
	res := f.reg.Expand(context.Background(), id)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if strings.Contains(tt.Pretty(res.Value.Arg.Children), "derive") {
		t.Errorf("derive attribute reached the expander: %s", tt.Pretty(res.Value.Arg.Children))
	}
	got := stripSpace(res.Value.Text())
	if !strings.HasPrefix(got, "impl::core::clone::CloneforP{") {
		t.Errorf("got %s", got)
	}
}

type procFunc func(ctx context.Context, macro string, input, attr *tt.Subtree, callSite span.Span) (*tt.Subtree, error)

func (f procFunc) Expand(ctx context.Context, macro string, input, attr *tt.Subtree, callSite span.Span) (*tt.Subtree, error) {
	return f(ctx, macro, input, attr, callSite)
}

func TestAttrInputAndFixups(t *testing.T) {
	src := `#[trace(level = 2)]
#[inline]
fn f() { let y = a.; }
`
	fs := source.NewFileSet()
	fid := fs.AddVirtual("main.rl", []byte(src))
	var seenInput, seenAttr string
	identity := procFunc(func(_ context.Context, _ string, input, attr *tt.Subtree, _ span.Span) (*tt.Subtree, error) {
		seenInput, seenAttr = tt.Pretty(input.Children), tt.Pretty(attr.Children)
		return input, nil
	})
	reg := expand.NewRegistry(fs, hygiene.NewTable(), expand.Options{ProcMacros: []expand.ProcMacroExpander{identity}})
	ctx := context.Background()
	ft, err := reg.File(ctx, span.RealFile(fid))
	if err != nil {
		t.Fatal(err)
	}
	fn := syntax.Descendants(ft.Root, syntax.Fn)[0]
	ast, _ := ft.AstIDs.IDOf(fn)
	id := reg.Intern(expand.MacroCallLoc{
		Def:      expand.MacroDefID{Kind: expand.ProcMacro, Name: "trace"},
		Kind:     expand.MacroCallKind{Kind: expand.CallAttr, Ast: span.FileAstID{File: span.RealFile(fid), Ast: ast}},
		CallSite: ft.Spans.SpanFor(syntax.Attrs(fn)[0].TrimmedRange()),
	})
	res := reg.Expand(ctx, id)

	if strings.Contains(seenInput, "trace") || !strings.Contains(seenInput, "#[inline]") {
		t.Errorf("input %q", seenInput)
	}
	if !strings.Contains(seenInput, syntaxbridge.FixupIdent) {
		t.Errorf("input was not patched: %q", seenInput)
	}
	if seenAttr != "level = 2" {
		t.Errorf("attr input %q", seenAttr)
	}
	res.Value.Output.Walk(nil, func(l tt.Leaf) {
		if l.Span().IsFixup() {
			t.Errorf("fixup token %s survived", tt.LeafText(l))
		}
	})
	if strings.Contains(res.Value.Text(), syntaxbridge.FixupIdent) {
		t.Errorf("output mentions the placeholder: %s", res.Value.Text())
	}
	// исходник сломан, значит и результат не разбирается
	if res.Err == nil || res.Err.Kind != expand.MalformedOutput {
		t.Errorf("err = %v", res.Err)
	}
}

func TestPoisonShortCircuits(t *testing.T) {
	f := newFixture(t, doubleSrc, expand.Options{})
	id := f.reg.Intern(f.fnLike(f.call("double", 0), f.rules("double")))
	perr := &expand.ExpandError{Kind: expand.RecursionOverflow, Msg: "recursion limit reached"}
	f.reg.Poison(id, perr)
	for range 2 {
		res := f.reg.Expand(context.Background(), id)
		if res.Err != perr {
			t.Fatalf("err = %v", res.Err)
		}
		if res.Value.Text() != "false" {
			t.Errorf("value = %q", res.Value.Text())
		}
	}
	if f.reg.Runs() != 0 {
		t.Errorf("poisoned call ran %d times", f.reg.Runs())
	}
}

func TestEagerArgument(t *testing.T) {
	f := newFixture(t, `fn main() { let s = concat!("a", stringify!(b c), 1, nope!()); }`, expand.Options{})
	ctx := context.Background()
	resolve := func(name string) (expand.MacroDefID, bool) {
		if id, ok := builtin.LookupFn(name); ok {
			return builtinFn(id), true
		}
		return expand.MacroDefID{}, false
	}
	loc := f.fnLike(f.call("concat", 0), builtinFn(builtin.FnConcat))
	eager, errs := f.reg.ExpandEager(ctx, loc, resolve)
	if len(errs) != 1 || errs[0].Kind != expand.Unresolved {
		t.Fatalf("errs = %v", errs)
	}
	if eager.EagerArg.IsZero() {
		t.Fatal("no eager argument recorded")
	}
	if eager == loc {
		t.Fatal("eager loc equals the lazy one")
	}

	f2 := newFixture(t, `fn main() { let s = concat!("a", stringify!(b c), 1); }`, expand.Options{})
	loc2 := f2.fnLike(f2.call("concat", 0), builtinFn(builtin.FnConcat))
	eager2, errs := f2.reg.ExpandEager(ctx, loc2, resolve)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	res := f2.reg.Expand(ctx, f2.reg.Intern(eager2))
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if got := res.Value.Text(); got != `"ab c1"` {
		t.Errorf("got %s", got)
	}
}

func TestCacheKey(t *testing.T) {
	f := newFixture(t, doubleSrc, expand.Options{})
	loc := f.fnLike(f.call("double", 0), f.rules("double"))
	var argA, argB, def expand.Fingerprint
	argA[0], argB[0], def[0] = 1, 2, 3
	if loc.CacheKey(argA, def) != loc.CacheKey(argA, def) {
		t.Errorf("cache key is not deterministic")
	}
	if loc.CacheKey(argA, def) == loc.CacheKey(argB, def) {
		t.Errorf("argument change kept the key")
	}
	other := loc
	other.Kind.ExpandTo = expand.Items
	if loc.CacheKey(argA, def) == other.CacheKey(argA, def) {
		t.Errorf("loc change kept the key")
	}
}

func TestCancelledCallerDoesNotCancelOthers(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	var once sync.Once
	blocking := procFunc(func(_ context.Context, _ string, input, _ *tt.Subtree, _ span.Span) (*tt.Subtree, error) {
		once.Do(func() { close(started) })
		<-release
		return input, nil
	})
	f := newFixture(t, "fn main() { let x = gen!(7); }", expand.Options{ProcMacros: []expand.ProcMacroExpander{blocking}})
	id := f.reg.Intern(f.fnLike(f.call("gen", 0), expand.MacroDefID{Kind: expand.ProcMacro, Name: "gen"}))

	type result = expand.ExpandResult[*expand.ExpansionInfo]
	ctxA, cancelA := context.WithCancel(context.Background())
	doneA, doneB := make(chan result, 1), make(chan result, 1)
	go func() { doneA <- f.reg.Expand(ctxA, id) }()
	<-started
	go func() { doneB <- f.reg.Expand(context.Background(), id) }()

	cancelA()
	a := <-doneA
	if a.Err == nil || a.Err.Kind != expand.Other || !strings.Contains(a.Err.Msg, "canceled") {
		t.Errorf("cancelled caller got %v", a.Err)
	}
	close(release)
	b := <-doneB
	if b.Err != nil || stripSpace(b.Value.Text()) != "7" {
		t.Errorf("live caller got %q, %v", b.Value.Text(), b.Err)
	}
	if f.reg.Runs() != 1 {
		t.Errorf("expander ran %d times", f.reg.Runs())
	}
}

func TestHungProcMacroIsTimeBoxed(t *testing.T) {
	hung := procFunc(func(ctx context.Context, _ string, _, _ *tt.Subtree, _ span.Span) (*tt.Subtree, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	f := newFixture(t, "fn main() { let x = gen!(7); }", expand.Options{
		ProcMacros:       []expand.ProcMacroExpander{hung},
		ProcMacroTimeout: 20 * time.Millisecond,
	})
	id := f.reg.Intern(f.fnLike(f.call("gen", 0), expand.MacroDefID{Kind: expand.ProcMacro, Name: "gen"}))
	res := f.reg.Expand(context.Background(), id)
	if res.Err == nil || res.Err.Kind != expand.ProcMacroPanic {
		t.Fatalf("err = %v", res.Err)
	}
	if stripSpace(res.Value.Text()) != "false" {
		t.Errorf("dummy = %q", res.Value.Text())
	}
}
