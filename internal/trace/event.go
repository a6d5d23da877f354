package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // span start
	KindSpanEnd                   // span end
	KindPoint                     // instant event
	// KindFailure is an instant event for something that went wrong: a
	// proc-macro crash, a recursion overflow. Kept from LevelError up,
	// whatever its scope.
	KindFailure
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindFailure:
		return "failure"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeDriver covers whole commands: expanding a file, a directory.
	ScopeDriver Scope = iota + 1
	// ScopeRoot covers one expansion root and everything nested under it.
	ScopeRoot
	// ScopeCall covers a single macro call: expander run and reparse.
	ScopeCall
	ScopeNode // cache hits and other per-node chatter
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeRoot:
		return "root"
	case ScopeCall:
		return "call"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// Event is one trace record. Tracers may keep the pointer only for the
// duration of Emit.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 at top level
	GID      uint64 // goroutine that emitted the event
	Name     string // e.g. "expand-file", "call:vec"
	Detail   string
	Extra    map[string]string
}
