package trace

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// StreamTracer writes events to an io.Writer as they arrive. Output is
// buffered; failures and heartbeats flush it so a stuck run is visible.
type StreamTracer struct {
	mu     sync.Mutex
	dst    io.Writer
	bw     *bufio.Writer
	level  Level
	format Format
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{dst: w, bw: bufio.NewWriter(w), level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.Admits(ev) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	// ошибки записи трассы не должны ронять раскрытие
	_, _ = t.bw.Write(data)
	if ev.Kind == KindFailure || ev.Kind == KindHeartbeat {
		_ = t.bw.Flush()
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bw.Flush()
}

// Close flushes and closes the writer if it is a file other than
// stderr.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.dst.(io.Closer); ok && t.dst != io.Writer(os.Stderr) {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
