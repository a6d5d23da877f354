// Package trace records what the macro expander does, as nested spans and
// instant events.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	rill expand --trace=- --trace-level=detail main.rl
//
// # Architecture
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: immediate write to a file or stderr, text or NDJSON
//   - RingTracer: the last N events in memory, dumped on demand
//   - MultiTracer: fans events out to several tracers
//
// # Levels and scopes
//
// Events belong to a scope; the level decides which scopes are kept:
//
//   - LevelPhase: ScopeDriver (commands) and ScopeRoot (expansion roots)
//   - LevelDetail: adds ScopeCall, one span per macro call
//   - LevelDebug: adds ScopeNode (cache hits, poisoned lookups)
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeRoot, "root:"+name, parentID)
//	defer span.End("")
package trace
