package source

import (
	"fmt"
)

// TextRange is a half-open byte interval [Start, End).
type TextRange struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// NewRange builds a range from start and length.
func NewRange(start, length uint32) TextRange {
	return TextRange{Start: start, End: start + length}
}

func (r TextRange) Empty() bool {
	return r.Start == r.End
}

func (r TextRange) Len() uint32 {
	return r.End - r.Start
}

func (r TextRange) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Contains reports whether off lies inside the range (end exclusive).
func (r TextRange) Contains(off uint32) bool {
	return r.Start <= off && off < r.End
}

// ContainsRange reports whether other is fully inside r.
func (r TextRange) ContainsRange(other TextRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Intersects reports whether the two ranges share at least one byte, or
// whether an empty range sits inside the other one.
func (r TextRange) Intersects(other TextRange) bool {
	return max(r.Start, other.Start) <= min(r.End, other.End)
}

// Cover returns the smallest range containing both.
func (r TextRange) Cover(other TextRange) TextRange {
	if other.Start < r.Start {
		r.Start = other.Start
	}
	if other.End > r.End {
		r.End = other.End
	}
	return r
}

// Add shifts the range right by n.
func (r TextRange) Add(n uint32) TextRange {
	return TextRange{Start: r.Start + n, End: r.End + n}
}

// Sub shifts the range left by n. Ranges that would underflow are returned unchanged.
func (r TextRange) Sub(n uint32) TextRange {
	if n > r.Start {
		return r
	}
	return TextRange{Start: r.Start - n, End: r.End - n}
}

// FileRange is a TextRange inside a concrete file.
type FileRange struct {
	File  FileID
	Range TextRange
}

func (r FileRange) String() string {
	return fmt.Sprintf("%d:%s", r.File, r.Range)
}
