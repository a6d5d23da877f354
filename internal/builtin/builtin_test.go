package builtin_test

import (
	"strings"
	"testing"

	"rill/internal/builtin"
	"rill/internal/parser"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

func spans(r source.TextRange) span.Span {
	return span.Span{Anchor: span.SpanAnchor{File: 1}, Range: r}
}

func args(text string) *tt.Subtree {
	return syntaxbridge.TextToTokenTree(text, spans)
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func testEnv() *builtin.Env {
	return &builtin.Env{
		CallSite:   span.Span{Anchor: span.SpanAnchor{File: 1}, Ctx: 7},
		File:       "src/main.rl",
		Line:       3,
		Column:     5,
		ModulePath: "app::util",
		Cfg:        builtin.NewCfg("unix", `feature="serde"`),
	}
}

func TestFnMacros(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"stringify", "a + b", `"a + b"`},
		{"stringify", "", `""`},
		{"stringify", "f(x) #[a] if (b) a [0]", `"f(x) #[a] if (b) a [0]"`},
		{"concat", `"a", 1, 'c', true, -2, 1.5f32,`, `"a1ctrue-21.5"`},
		{"concat", `"tab\t", r"raw\n", 1_000u64`, `"tab\traw\\n1000"`},
		{"line", "", "3u32"},
		{"column", "", "5u32"},
		{"file", "", `"src/main.rl"`},
		{"module_path", "", `"app::util"`},
		{"cfg", "unix", "true"},
		{"cfg", "windows", "false"},
		{"cfg", `all(unix, feature = "serde")`, "true"},
		{"cfg", `any(windows, not(feature = "std"))`, "true"},
		{"cfg", `not(all(unix, windows))`, "true"},
	}
	for _, tc := range tests {
		t.Run(tc.name+"/"+tc.arg, func(t *testing.T) {
			id, ok := builtin.LookupFn(tc.name)
			if !ok {
				t.Fatalf("%s is not a builtin", tc.name)
			}
			env := testEnv()
			out, err := id.Expand(env, args(tc.arg))
			if err != nil {
				t.Fatalf("expand: %v", err)
			}
			if got := tt.Pretty(out.Children); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			out.Walk(func(*tt.Subtree) {}, func(l tt.Leaf) {
				if l.Span() != env.CallSite {
					t.Errorf("%s has span %v, want the call site", tt.LeafText(l), l.Span())
				}
			})
		})
	}
}

func TestFnMacroErrors(t *testing.T) {
	tests := []struct {
		name, arg, want string
	}{
		{"concat", "x", "expected a literal"},
		{"concat", `b"bytes"`, "byte string"},
		{"concat", `"a" "b"`, "expected a literal"},
		{"cfg", "= unix", "cfg-pattern"},
		{"cfg", "frob(unix)", "invalid predicate"},
		{"assert", "", "boolean expression"},
		{"compile_error", "1, 2", "takes 1 argument"},
	}
	for _, tc := range tests {
		id, _ := builtin.LookupFn(tc.name)
		_, err := id.Expand(testEnv(), args(tc.arg))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s!(%s): err = %v, want %q", tc.name, tc.arg, err, tc.want)
		}
	}
}

func TestCompileErrorCarriesUserMessage(t *testing.T) {
	out, err := builtin.FnCompileError.Expand(testEnv(), args(`"unsupported \"mode\""`))
	e, ok := err.(*builtin.Error)
	if !ok || !e.User || e.Msg != `unsupported "mode"` {
		t.Fatalf("err = %#v", err)
	}
	if len(out.Children) != 0 {
		t.Errorf("compile_error! produced %s", out)
	}
}

func TestEagerness(t *testing.T) {
	for name, want := range map[string]bool{"concat": true, "compile_error": true, "stringify": false, "assert": false} {
		id, _ := builtin.LookupFn(name)
		if id.IsEager() != want {
			t.Errorf("%s eager = %v", name, !want)
		}
	}
	if _, ok := builtin.LookupFn("format_args"); ok {
		t.Error("format_args should not be a builtin")
	}
}

func TestAssert(t *testing.T) {
	tests := []struct {
		arg, want string
	}{
		{"x == 1", `{if!(x==1){::core::panic!("assertion failed: x == 1");}}`},
		{`ok, "bad {}", v`, `{if!(ok){::core::panic!("bad {}",v);}}`},
	}
	for _, tc := range tests {
		out, err := builtin.FnAssert.Expand(testEnv(), args(tc.arg))
		if err != nil {
			t.Fatal(err)
		}
		root, _, errs := syntaxbridge.TokenTreeToSyntax(out, parser.ExprEntry)
		if len(errs) != 0 {
			t.Fatalf("reparse %q: %v", root.Text(), errs)
		}
		if got := stripSpace(root.Text()); got != stripSpace(tc.want) {
			t.Errorf("got %s, want %s", got, tc.want)
		}
	}
}

func TestQuoteSplicesArguments(t *testing.T) {
	sp := span.Span{Ctx: 4}
	arg := args("a + b")
	out := builtin.Quote(sp, "f(#0, #1)", arg.Children, nil)
	if got := tt.Pretty(out.Children); got != "f(a + b ,)" {
		t.Errorf("got %q", got)
	}
	var ctxs []span.SyntaxContext
	out.Walk(func(*tt.Subtree) {}, func(l tt.Leaf) { ctxs = append(ctxs, l.Span().Ctx) })
	want := []span.SyntaxContext{4, 0, 0, 0, 4}
	if len(ctxs) != len(want) {
		t.Fatalf("ctxs = %v", ctxs)
	}
	for i := range want {
		if ctxs[i] != want[i] {
			t.Errorf("leaf %d ctx %d, want %d", i, ctxs[i], want[i])
		}
	}
}

func TestDerives(t *testing.T) {
	const point = "struct P<'a, T> { x: T, name: &'a str }"
	tests := []struct {
		derive string
		item   string
		want   string
	}{
		{"Copy", "struct U;", "impl ::core::marker::Copy for U {}"},
		{"Eq", point, "impl<'a, T: ::core::cmp::Eq> ::core::cmp::Eq for P<'a, T> {}"},
		{"Clone", point, "impl<'a, T: ::core::clone::Clone> ::core::clone::Clone for P<'a, T> { fn clone(&self) -> Self " +
			"{ P { x: ::core::clone::Clone::clone(&self.x), name: ::core::clone::Clone::clone(&self.name) } } }"},
		{"Default", "struct W(u8, bool);", "impl ::core::default::Default for W { fn default() -> Self " +
			"{ W(::core::default::Default::default(), ::core::default::Default::default()) } }"},
		{"Debug", "struct W(u8);", "impl ::core::fmt::Debug for W { fn fmt(&self, f: &mut ::core::fmt::Formatter) -> ::core::fmt::Result " +
			`{ f.debug_tuple("W").field(&self.0).finish() } }`},
		{"Debug", "struct U;", "impl ::core::fmt::Debug for U { fn fmt(&self, f: &mut ::core::fmt::Formatter) -> ::core::fmt::Result " +
			`{ f.write_str("U") } }`},
		{"PartialEq", "#[doc = \"p\"] pub struct Q { a: u8, b: u8 }", "impl ::core::cmp::PartialEq for Q { fn eq(&self, other: &Self) -> bool " +
			"{ true && self.a == other.a && self.b == other.b } }"},
		{"Hash", "struct Q { a: u8 }", "impl ::core::hash::Hash for Q { fn hash<H: ::core::hash::Hasher>(&self, state: &mut H) " +
			"{ ::core::hash::Hash::hash(&self.a, state); } }"},
	}
	for _, tc := range tests {
		t.Run(tc.derive, func(t *testing.T) {
			id, ok := builtin.LookupDerive(tc.derive)
			if !ok {
				t.Fatalf("no derive %s", tc.derive)
			}
			out, err := id.Expand(testEnv(), args(tc.item))
			if err != nil {
				t.Fatal(err)
			}
			root, _, errs := syntaxbridge.TokenTreeToSyntax(out, parser.MacroItemsEntry)
			if len(errs) != 0 {
				t.Fatalf("reparse %q: %v", root.Text(), errs)
			}
			if got := stripSpace(root.Text()); got != stripSpace(tc.want) {
				t.Errorf("got\n%s\nwant\n%s", got, stripSpace(tc.want))
			}
		})
	}
}

func TestDeriveRejectsNonStructs(t *testing.T) {
	_, err := builtin.DeriveClone.Expand(testEnv(), args("fn f() {}"))
	if err == nil || !strings.Contains(err.Error(), "only be applied to structs") {
		t.Errorf("err = %v", err)
	}
}

func TestTestAttribute(t *testing.T) {
	item := args("fn check() {}")
	id, _ := builtin.LookupAttr("test")

	out, err := id.Expand(testEnv(), nil, item)
	if err != nil || len(out.Children) != 0 {
		t.Errorf("without cfg(test): %s, %v", out, err)
	}

	env := testEnv()
	env.Cfg.Enable("test", "")
	out, err = id.Expand(env, nil, item)
	if err != nil || out != item {
		t.Errorf("with cfg(test): %s, %v", out, err)
	}

	ga, _ := builtin.LookupAttr("global_allocator")
	if out, _ := ga.Expand(testEnv(), nil, item); out != item {
		t.Errorf("global_allocator changed the item: %s", out)
	}
}

func TestCfgAtoms(t *testing.T) {
	c := builtin.NewCfg("unix", ` feature = "serde" `, "test")
	got := strings.Join(c.Atoms(), ",")
	if got != "feature=serde,test,unix" {
		t.Errorf("atoms = %s", got)
	}
	var nilCfg *builtin.CfgOptions
	if nilCfg.Enabled("unix", "") {
		t.Error("nil options enable nothing")
	}
}
