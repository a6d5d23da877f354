package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopeRoot, true},
		{LevelPhase, ScopeCall, false},
		{LevelDetail, ScopeCall, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tc := range tests {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestRingKeepsSpansAndPoints(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	root := Begin(ring, ScopeRoot, "root:main", 0)
	Point(ring, ScopeNode, "cache-hit", "call 3", root.ID())
	root.WithExtra("calls", "1").End("ok")

	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("got %d events", len(events))
	}
	if events[1].Kind != KindPoint || events[1].ParentID != root.ID() {
		t.Errorf("point = %+v", events[1])
	}
	if end := events[2]; end.Kind != KindSpanEnd || end.Extra["calls"] != "1" || end.Detail != "ok" {
		t.Errorf("end = %+v", end)
	}
}

func TestRingWrapsAround(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeCall, name, "", 0)
	}
	events := ring.Snapshot()
	if ring.Len() != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Errorf("events = %+v", events)
	}
}

func TestSpanBelowLevelIsDropped(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	sp := Begin(ring, ScopeCall, "call:m", 0)
	sp.End("")
	if ring.Len() != 0 {
		t.Errorf("call span emitted at phase level")
	}
	if sp.ID() != 0 {
		t.Errorf("dropped span has id %d", sp.ID())
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	Point(st, ScopeCall, "proc-macro-failure", "timeout", 7)
	if buf.Len() != 0 {
		t.Errorf("point written before Flush")
	}
	if err := st.Flush(); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("%v: %q", err, buf.String())
	}
	if got["name"] != "proc-macro-failure" || got["scope"] != "call" || got["detail"] != "timeout" {
		t.Errorf("event = %v", got)
	}
}

func TestMultiGivesEachTracerItsOwnEvent(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(4, LevelDebug)
	m := NewMultiTracer(LevelDebug, NewStreamTracer(&buf, LevelDebug, FormatText), ring)
	Point(m, ScopeDriver, "expand-file", "", 0)
	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "expand-file") {
		t.Errorf("stream output %q", buf.String())
	}
	if ring.Len() != 1 {
		t.Errorf("ring has %d events", ring.Len())
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Errorf("empty context should give Nop")
	}
	ring := NewRingTracer(1, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Errorf("tracer not propagated")
	}
	if ParentID(ctx) != 0 {
		t.Errorf("parent set without a span")
	}
}

func TestStartNestsSpans(t *testing.T) {
	ring := NewRingTracer(16, LevelPhase)
	ctx := WithTracer(context.Background(), ring)

	fileCtx, file := Start(ctx, ScopeDriver, "expand-file")
	if ParentID(fileCtx) != file.ID() || file.ID() == 0 {
		t.Fatalf("file span not attached to context")
	}
	// call spans are dropped at phase level; their children attach to the file
	callCtx, call := Start(fileCtx, ScopeCall, "call:m")
	if call.ID() != 0 || ParentID(callCtx) != file.ID() {
		t.Errorf("dropped span changed the parent")
	}
	rootCtx, root := Start(callCtx, ScopeRoot, "root:m")
	Mark(rootCtx, ScopeRoot, "root-cache-hit", "m")
	root.End("")
	file.End("")

	events := ring.Snapshot()
	if len(events) != 5 {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	if events[1].ParentID != file.ID() || events[2].ParentID != root.ID() {
		t.Errorf("parents = %d, %d", events[1].ParentID, events[2].ParentID)
	}
}

func TestFailuresPassErrorLevel(t *testing.T) {
	ring := NewRingTracer(8, LevelError)
	ctx := WithTracer(context.Background(), ring)
	_, sp := Start(ctx, ScopeDriver, "expand-file")
	Mark(ctx, ScopeDriver, "note", "")
	Fail(ctx, ScopeNode, "proc-macro-failure", errors.New("server exited"))
	Fail(ctx, ScopeNode, "ignored", nil)
	sp.End("")

	if ring.Len() != 1 {
		t.Fatalf("ring has %d events, want only the failure", ring.Len())
	}
	f := ring.Failures()
	if len(f) != 1 || f[0].Detail != "server exited" || f[0].Kind != KindFailure {
		t.Errorf("failures = %+v", f)
	}
}

func TestRingModeDumpsOnClose(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeRing, Output: &buf, RingSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		Point(tr, ScopeDriver, name, "", 0)
	}
	if buf.Len() != 0 {
		t.Errorf("ring wrote before Close")
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "\u2022 a") || !strings.Contains(out, "\u2022 b") || !strings.Contains(out, "\u2022 c") {
		t.Errorf("dump:\n%s", out)
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel(" Detail "); err != nil || l != LevelDetail {
		t.Errorf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("loud accepted")
	}
	if m, err := ParseMode("BOTH"); err != nil || m != ModeBoth {
		t.Errorf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Errorf("disk accepted")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "text": FormatText, "NDJSON": FormatNDJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("chrome"); err == nil {
		t.Errorf("chrome accepted")
	}
}

func TestHeartbeatCarriesProgress(t *testing.T) {
	ring := NewRingTracer(64, LevelPhase)
	var runs atomic.Int64
	runs.Add(5)
	hb := StartHeartbeat(ring, time.Millisecond, runs.Load)
	deadline := time.Now().Add(2 * time.Second)
	for ring.Len() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()

	events := ring.Snapshot()
	if len(events) < 2 {
		t.Fatalf("got %d heartbeats", len(events))
	}
	var total int64
	for _, ev := range events {
		if ev.Kind != KindHeartbeat {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.Extra["progress"] == "" {
			t.Fatalf("heartbeat without progress: %+v", ev)
		}
		var d int64
		if _, err := fmt.Sscan(ev.Extra["delta"], &d); err != nil {
			t.Fatal(err)
		}
		total += d
	}
	if total != 5 {
		t.Errorf("deltas sum to %d, want 5", total)
	}
}

func TestHeartbeatOffTracer(t *testing.T) {
	if hb := StartHeartbeat(nopTracer{}, time.Millisecond, nil); hb != nil {
		t.Errorf("heartbeat started on a disabled tracer")
	}
	var hb *Heartbeat
	hb.Stop()
}
