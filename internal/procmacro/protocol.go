// Package procmacro talks to procedural macros hosted out of process.
//
// A server owns a set of named expanders; a client sends it token trees and
// gets token trees back. Messages are msgpack documents framed with a
// Content-Length header, one request and one response at a time per
// connection. A panicking expander is reported in its response and does not
// take the server down; a hung or dead server is detected by the client,
// which drops the connection and dials a fresh one on the next request.
package procmacro

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// maxFrame bounds a single message.
const maxFrame = 64 << 20

// Kind is the flavour of a procedural macro.
type Kind uint8

const (
	KindFnLike Kind = iota
	KindAttr
	KindDerive
)

func (k Kind) String() string {
	switch k {
	case KindFnLike:
		return "fn-like"
	case KindAttr:
		return "attribute"
	case KindDerive:
		return "derive"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

const (
	methodListMacros = "list_macros"
	methodExpand     = "expand"
)

// MacroInfo describes one macro a server offers.
type MacroInfo struct {
	Name string `msgpack:"name"`
	Kind Kind   `msgpack:"kind"`
}

// ExpandRequest asks for one expansion. Attr is set for attribute macros
// only.
type ExpandRequest struct {
	Macro    string    `msgpack:"macro"`
	Input    *FlatTree `msgpack:"input"`
	Attr     *FlatTree `msgpack:"attr,omitempty"`
	CallSite FlatSpan  `msgpack:"call_site"`
}

// Request is a client message.
type Request struct {
	ID     uint64         `msgpack:"id"`
	Method string         `msgpack:"method"`
	Expand *ExpandRequest `msgpack:"expand,omitempty"`
}

// Response is a server message. Exactly one of Macros, Output, Panic and
// Error is meaningful.
type Response struct {
	ID     uint64      `msgpack:"id"`
	Macros []MacroInfo `msgpack:"macros,omitempty"`
	Output *FlatTree   `msgpack:"output,omitempty"`
	Panic  string      `msgpack:"panic,omitempty"`
	Error  string      `msgpack:"error,omitempty"`
}

func readFrame(r *bufio.Reader, v any) error {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			length, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = length
		}
	}
	if contentLength < 0 {
		return fmt.Errorf("missing Content-Length header")
	}
	if contentLength > maxFrame {
		return fmt.Errorf("frame of %d bytes exceeds the %d byte limit", contentLength, maxFrame)
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	return msgpack.Unmarshal(payload, v)
}

func writeFrame(w *bufio.Writer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}
