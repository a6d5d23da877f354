package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last N events in memory.
type RingTracer struct {
	mu    sync.RWMutex
	buf   []Event
	total uint64 // events ever stored
	level Level
}

// NewRingTracer creates a RingTracer holding up to capacity events
// (4096 when capacity is not positive).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.Admits(ev) {
		return
	}
	t.mu.Lock()
	stored := *ev
	stored.Seq = NextSeq()
	t.buf[t.total%uint64(len(t.buf))] = stored
	t.total++
	t.mu.Unlock()
}

// Len returns the number of stored events.
func (t *RingTracer) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int(min(t.total, uint64(len(t.buf))))
}

// Snapshot returns a copy of the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	return t.Filter(nil)
}

// Filter returns the stored events for which keep is true, oldest first.
// A nil keep selects everything.
func (t *RingTracer) Filter(keep func(*Event) bool) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := min(t.total, uint64(len(t.buf)))
	out := make([]Event, 0, n)
	for i := t.total - n; i < t.total; i++ {
		ev := &t.buf[i%uint64(len(t.buf))]
		if keep == nil || keep(ev) {
			out = append(out, *ev)
		}
	}
	return out
}

// Failures returns the stored failure events, oldest first.
func (t *RingTracer) Failures() []Event {
	return t.Filter(func(ev *Event) bool { return ev.Kind == KindFailure })
}

// Dump writes the stored events to w in format.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
