package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

// EventKind is the kind of a parser event.
type EventKind uint8

const (
	// EvTombstone is an abandoned or already consumed Open.
	EvTombstone EventKind = iota
	// EvOpen starts a node. ForwardParent links to an Open that must be
	// started before this one (see CompletedMarker.precede).
	EvOpen
	// EvClose finishes the innermost node.
	EvClose
	// EvToken consumes input. Len==0 consumes the rest of the current input
	// token; Len>0 consumes that many bytes of it, which is how float
	// literals in field position and glued '>>' are split.
	EvToken
	// EvError records a syntax error at the current position.
	EvError
)

// Event is one step of the parse. The parser never builds trees itself;
// a TreeSink replays the events.
type Event struct {
	Kind          EventKind
	Node          syntax.NodeKind
	Tok           token.Kind
	Len           int
	ForwardParent int
	Msg           string
}

// TreeSink receives the replayed events.
type TreeSink interface {
	StartNode(k syntax.NodeKind)
	FinishNode()
	Token(k token.Kind, n int)
	Error(msg string)
}

// Process replays events into sink, resolving forward parents. events is
// modified in place.
func Process(events []Event, sink TreeSink) {
	var parents []syntax.NodeKind
	for i := range events {
		ev := events[i]
		switch ev.Kind {
		case EvTombstone:
		case EvOpen:
			parents = append(parents[:0], ev.Node)
			idx, fp := i, ev.ForwardParent
			events[i].Kind = EvTombstone
			for fp != 0 {
				idx += fp
				next := events[idx]
				events[idx].Kind = EvTombstone
				if next.Kind == EvOpen {
					parents = append(parents, next.Node)
				}
				fp = next.ForwardParent
			}
			for j := len(parents) - 1; j >= 0; j-- {
				sink.StartNode(parents[j])
			}
		case EvClose:
			sink.FinishNode()
		case EvToken:
			sink.Token(ev.Tok, ev.Len)
		case EvError:
			sink.Error(ev.Msg)
		}
	}
}

// HasErrors reports whether the parse produced any error event.
func HasErrors(events []Event) bool {
	for _, ev := range events {
		if ev.Kind == EvError {
			return true
		}
	}
	return false
}
