package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"rill/internal/diag"
	"rill/internal/driver"
	"rill/internal/source"
)

type recordSink struct {
	mu     sync.Mutex
	events []driver.Event
}

func (r *recordSink) OnEvent(ev driver.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordSink) statuses(file string) []driver.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []driver.Status
	for _, ev := range r.events {
		if ev.File == file {
			out = append(out, ev.Status)
		}
	}
	return out
}

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.rl", "")
	writeFile(t, dir, "sub/a.rl", "")
	writeFile(t, dir, "notes.txt", "")

	got, err := driver.ListSources(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "b.rl"), filepath.Join(dir, "sub", "a.rl")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.rl", "macro_rules! one { () => { 1 }; }\nfn f() { let v = one!(); }\n")
	missing := filepath.Join(dir, "missing.rl")

	sink := &recordSink{}
	d := driver.New(source.NewFileSet(), driver.Options{Progress: sink, Jobs: 2})
	results, err := d.ExpandPaths(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if got := stripSpace(results[0].Text); !strings.Contains(got, "letv=1;") {
		t.Errorf("text %s", results[0].Text)
	}
	if !hasCode(results[1].Bag, diag.IOLoadFileError) {
		t.Errorf("missing file: %v", codes(results[1].Bag))
	}

	st := sink.statuses(driver.DisplayPath(good))
	if len(st) < 3 || st[0] != driver.StatusQueued || st[len(st)-1] != driver.StatusDone {
		t.Errorf("good file events = %v", st)
	}
	st = sink.statuses(driver.DisplayPath(missing))
	if len(st) != 2 || st[1] != driver.StatusError {
		t.Errorf("missing file events = %v", st)
	}
}

func TestExpandPathsCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rl", "fn f() {}\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := driver.New(source.NewFileSet(), driver.Options{})
	if _, err := d.ExpandPaths(ctx, []string{path}); err == nil {
		t.Errorf("expected cancellation error")
	}
}
