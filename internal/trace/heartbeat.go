package trace

import (
	"strconv"
	"sync"
	"time"
)

// ProgressFunc reports how much work is done so far, e.g. the number of
// expander runs. It is called from the heartbeat goroutine.
type ProgressFunc func() int64

// Heartbeat emits a liveness event every interval. Each beat carries the
// progress counter and how much it moved since the previous beat, so a
// stalled expansion shows up as beats with "delta=0".
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	progress ProgressFunc
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// StartHeartbeat starts the heartbeat goroutine. It returns nil when the
// tracer is off or interval is not positive; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration, progress ProgressFunc) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		progress: progress,
		stopCh:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat uint64
	var last int64
	for {
		select {
		case <-ticker.C:
			beat++
			ev := &Event{
				Time:   time.Now(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    goroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.FormatUint(beat, 10),
			}
			if h.progress != nil {
				cur := h.progress()
				ev.Extra = map[string]string{
					"progress": strconv.FormatInt(cur, 10),
					"delta":    strconv.FormatInt(cur-last, 10),
				}
				last = cur
			}
			h.tracer.Emit(ev)
		case <-h.stopCh:
			return
		}
	}
}

// Stop ends the heartbeat and waits for the goroutine to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		close(h.stopCh)
		h.wg.Wait()
	})
}
