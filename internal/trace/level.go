package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // failures only
	LevelPhase               // driver and expansion roots
	LevelDetail              // every macro call
	LevelDebug               // everything including cache hits
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// String returns the string representation of Level.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a string to a Level, ignoring case.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether spans and points of scope are kept at this
// level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeRoot
	case LevelDetail:
		return scope <= ScopeCall
	case LevelDebug:
		return true
	default:
		return false
	}
}

// Admits reports whether ev is kept at this level. Failures ignore the
// scope filter; heartbeats pass whenever tracing is on.
func (l Level) Admits(ev *Event) bool {
	switch ev.Kind {
	case KindFailure:
		return l >= LevelError
	case KindHeartbeat:
		return l > LevelOff
	default:
		return l.ShouldEmit(ev.Scope)
	}
}
