package driver_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"rill/internal/driver"
	"rill/internal/token"
)

func TestTokenizeIsLossless(t *testing.T) {
	src := "// head\nfn f() -> i32 { m!(a, b) }\n"
	path := writeFile(t, t.TempDir(), "t.rl", src)

	res, err := driver.Tokenize(context.Background(), path, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if n := len(res.Tokens); n == 0 || res.Tokens[n-1].Kind != token.EOF {
		t.Fatalf("token stream does not end with EOF")
	}
	var b strings.Builder
	for _, tok := range res.Tokens {
		for _, tr := range tok.Leading {
			b.WriteString(tr.Text)
		}
		b.WriteString(tok.Text)
	}
	if b.String() != src {
		t.Errorf("tokens rebuild %q, want %q", b.String(), src)
	}
	if res.Tree == nil || len(res.Tree.Children) == 0 {
		t.Errorf("empty token tree")
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := driver.Parse(context.Background(), filepath.Join(t.TempDir(), "nope.rl"), driver.Options{})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
