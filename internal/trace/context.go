package trace

import "context"

type ctxKey struct{}

type parentKey struct{}

// FromContext extracts the Tracer from context; Nop when there is none.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// ParentID returns the id of the span ctx runs under, 0 at top level.
func ParentID(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(parentKey{}).(uint64)
	return id
}

// Start opens a span under the span of ctx. The returned context nests
// later spans under the new one. A span dropped by the level leaves ctx
// as is, so its children attach to the nearest kept ancestor.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	sp := Begin(FromContext(ctx), scope, name, ParentID(ctx))
	if sp.ID() == 0 {
		return ctx, sp
	}
	return context.WithValue(ctx, parentKey{}, sp.ID()), sp
}

// Mark emits a point event under the span of ctx.
func Mark(ctx context.Context, scope Scope, name, detail string) {
	Point(FromContext(ctx), scope, name, detail, ParentID(ctx))
}

// Fail records err under the span of ctx. Nil errors are ignored.
func Fail(ctx context.Context, scope Scope, name string, err error) {
	if err == nil {
		return
	}
	Failure(FromContext(ctx), scope, name, err, ParentID(ctx))
}
