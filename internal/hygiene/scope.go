package hygiene

// binding — неизменяемое звено списка определений кадра.
type binding[D any] struct {
	name string
	def  D
	next *binding[D]
}

// frame — один лексический уровень текстовой видимости макросов. Кадры не
// меняются после создания: вставка строит новый кадр поверх старого списка.
type frame[D any] struct {
	defs    *binding[D]
	escapes bool
	parent  *frame[D]
}

// Scopes is the textual scope stack for macro definitions. A frame pushed
// with escapes set (a `#[macro_use]` module) does not keep its own
// definitions: insertions go to the nearest non-escaping ancestor, so the
// macros stay visible after the frame is popped.
//
// Frames are persistent and linked to their parent, so Snapshot is O(1)
// and snapshots share every frame with the stack they were taken from.
type Scopes[D any] struct {
	top   *frame[D]
	depth int
}

// NewScopes returns a stack holding the non-escaping root frame.
func NewScopes[D any]() *Scopes[D] {
	return &Scopes[D]{top: &frame[D]{}, depth: 1}
}

// Depth returns the number of frames, root included.
func (s *Scopes[D]) Depth() int { return s.depth }

// Push opens a frame.
func (s *Scopes[D]) Push(escapes bool) {
	s.top = &frame[D]{escapes: escapes, parent: s.top}
	s.depth++
}

// Pop closes the innermost frame. The root frame is never popped.
func (s *Scopes[D]) Pop() {
	if s.top.parent != nil {
		s.top = s.top.parent
		s.depth--
	}
}

// Insert defines name in the innermost non-escaping frame, shadowing any
// earlier definition there.
func (s *Scopes[D]) Insert(name string, def D) {
	s.top = insert(s.top, name, def)
}

// insert returns f with name bound in its innermost non-escaping frame.
// Escaping frames above that one hold no definitions and are re-linked.
func insert[D any](f *frame[D], name string, def D) *frame[D] {
	if !f.escapes || f.parent == nil {
		return &frame[D]{
			defs:    &binding[D]{name: name, def: def, next: f.defs},
			escapes: f.escapes,
			parent:  f.parent,
		}
	}
	return &frame[D]{escapes: true, parent: insert(f.parent, name, def)}
}

// Lookup finds name walking outwards from the innermost frame.
func (s *Scopes[D]) Lookup(name string) (D, bool) {
	for f := s.top; f != nil; f = f.parent {
		for b := f.defs; b != nil; b = b.next {
			if b.name == name {
				return b.def, true
			}
		}
	}
	var zero D
	return zero, false
}

// Snapshot returns an independent stack sharing all frames with s. Later
// insertions or pops on either side stay private to it.
func (s *Scopes[D]) Snapshot() *Scopes[D] {
	return &Scopes[D]{top: s.top, depth: s.depth}
}
