package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"rill/internal/source"
)

// Cursor walks the bytes of one file. Reads past Limit yield 0.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32
}

// Mark is a saved offset; RangeFrom turns it into the range read since.
type Mark uint32

func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("lexer: file %s is too large: %w", f.Path, err))
	}
	return Cursor{File: f, Limit: limit}
}

// at возвращает байт по абсолютному смещению или 0 за границей.
func (c *Cursor) at(off uint32) byte {
	if off >= c.Limit {
		return 0
	}
	return c.File.Content[off]
}

func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

func (c *Cursor) Peek() byte { return c.at(c.Off) }

// PeekAt looks n bytes ahead of the current one.
func (c *Cursor) PeekAt(n uint32) byte { return c.at(c.Off + n) }

// Peek2 returns the next two bytes; ok is false when fewer remain.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if c.Limit-min(c.Off, c.Limit) < 2 {
		return 0, 0, false
	}
	return c.at(c.Off), c.at(c.Off + 1), true
}

// Peek3 is Peek2 for three bytes.
func (c *Cursor) Peek3() (b0, b1, b2 byte, ok bool) {
	if c.Limit-min(c.Off, c.Limit) < 3 {
		return 0, 0, 0, false
	}
	return c.at(c.Off), c.at(c.Off + 1), c.at(c.Off + 2), true
}

// Bump consumes one byte and returns it.
func (c *Cursor) Bump() byte {
	b := c.at(c.Off)
	if !c.EOF() {
		c.Off++
	}
	return b
}

// Eat consumes b if it is next.
func (c *Cursor) Eat(b byte) bool {
	if c.EOF() || c.at(c.Off) != b {
		return false
	}
	c.Off++
	return true
}

func (c *Cursor) Mark() Mark { return Mark(c.Off) }

func (c *Cursor) RangeFrom(m Mark) source.TextRange {
	return source.TextRange{Start: uint32(m), End: c.Off}
}
