package source

import (
	"fmt"
	"sync"
	"testing"
)

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID должен возвращать пустую строку, получили: %q, ok=%v", s, ok)
	}

	id1 := interner.Intern("hello")
	if id1 == NoStringID {
		t.Error("Intern не должен возвращать NoStringID для непустой строки")
	}
	if id2 := interner.Intern("hello"); id1 != id2 {
		t.Errorf("equal strings must share an id: %d != %d", id1, id2)
	}
	if s := interner.MustLookup(id1); s != "hello" {
		t.Errorf("MustLookup = %q", s)
	}
	if id3 := interner.Intern("world"); id3 == id1 {
		t.Error("different strings must get different ids")
	}
	if interner.Len() != 3 {
		t.Errorf("Len = %d, want 3", interner.Len())
	}
	if _, ok := interner.Lookup(StringID(999)); ok {
		t.Error("Lookup of unknown id must fail")
	}
}

func TestInternerStringCopy(t *testing.T) {
	interner := NewInterner()
	buf := []byte("original")
	id := interner.Intern(string(buf))
	buf[0] = 'X'
	if s, _ := interner.Lookup(id); s != "original" {
		t.Errorf("Interner должен сохранять копию строки, получили: %q", s)
	}
}

func TestInternIdentNFC(t *testing.T) {
	interner := NewInterner()
	composed := "café"    // é as one code point
	decomposed := "café" // e + combining acute
	if interner.InternIdent(composed) != interner.InternIdent(decomposed) {
		t.Error("NFC-equivalent identifiers must intern to the same id")
	}
	if NormalizeIdent("plain") != "plain" {
		t.Error("ASCII identifiers must be returned unchanged")
	}
}

func TestInternerConcurrentIntern(t *testing.T) {
	interner := NewInterner()
	const numGoroutines = 64
	const numStrings = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for range numGoroutines {
		go func() {
			defer wg.Done()
			for i := range numStrings {
				interner.Intern(fmt.Sprintf("string_%d", i))
			}
		}()
	}
	wg.Wait()

	if interner.Len() != numStrings+1 {
		t.Errorf("Ожидалось %d строк, получили: %d", numStrings+1, interner.Len())
	}
	seen := make(map[StringID]bool)
	for i := range numStrings {
		id := interner.Intern(fmt.Sprintf("string_%d", i))
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

func BenchmarkInternerInternDuplicate(b *testing.B) {
	interner := NewInterner()
	interner.Intern("duplicate_string")
	for b.Loop() {
		interner.Intern("duplicate_string")
	}
}
