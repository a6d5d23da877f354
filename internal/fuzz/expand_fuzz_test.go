package fuzztests

import (
	"context"
	"testing"
	"time"

	"rill/internal/driver"
	"rill/internal/source"
)

// expandTimeout is the maximum time allowed for expanding a single input.
// Longer runs point at a recursion or repetition that escapes the limits.
const expandTimeout = 10 * time.Second

// FuzzExpandNoHang expands arbitrary files with tight limits. Expansion
// must finish, never panic and always render the file.
func FuzzExpandNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("macro_rules! b { ($($t:tt)*) => { b!($($t)* $($t)*) }; }\nfn f() { b!(x); }\n"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		ctx, cancel := context.WithTimeout(context.Background(), expandTimeout)
		defer cancel()

		type outcome struct {
			res *driver.FileResult
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			fs := source.NewFileSet()
			id := fs.AddVirtual("fuzz.rl", input)
			d := driver.New(fs, driver.Options{
				RecursionLimit: 16,
				MaxLeaves:      1 << 12,
				MaxDiagnostics: 128,
				Jobs:           2,
			})
			res, err := d.ExpandFile(ctx, id)
			done <- outcome{res, err}
		}()

		select {
		case out := <-done:
			if out.err != nil {
				t.Fatalf("expand failed: %v", out.err)
			}
			if out.res.Text == "" && len(input) > 0 && len(out.res.Roots) == 0 {
				t.Fatalf("file without calls rendered empty")
			}
		case <-ctx.Done():
			t.Fatalf("expansion hang detected: took longer than %v\ninput (%d bytes): %q",
				expandTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func truncateForLog(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
