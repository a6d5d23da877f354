package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

// builtinSeeds cover the shapes the expander cares about even when
// testdata is missing.
var builtinSeeds = []string{
	"",
	"fn main() -> i32 { return 0; }\n",
	"macro_rules! m { ($e:expr) => { $e * 2 }; }\nfn f() { let x = m!(1); }\n",
	"macro_rules! r { () => { r!() }; }\nfn f() { r!(); }\n",
	"macro_rules! v { ($($x:expr),* $(,)?) => { [$($x),*] }; }\nconst A: [u8; 3] = v![1, 2, 3,];\n",
	"#[derive(Clone, Debug)]\nstruct P { a: u8 }\n",
	"#[macro_use]\nmod m { macro_rules! k { () => {}; } }\n",
	"fn f() { let s = concat!(stringify!(a b), line!(), \"x\"); }\n",
	"fn g<'a>(x: &'a str) -> impl Fn() -> u8 + 'a { || x.0.1 }\n",
	"fn f() { a >>= b; c ..= d; e -> f; }\n",
	"fn f() { (((( }",
	"#[",
	"m!{",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.rl файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".rl" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
