package procmacro

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"rill/internal/span"
	"rill/internal/tt"
)

// ExpandFunc is a procedural macro. attr is nil unless the macro is an
// attribute.
type ExpandFunc func(input, attr *tt.Subtree, callSite span.Span) (*tt.Subtree, error)

// Macro is a named expander hosted by a server.
type Macro struct {
	Name   string
	Kind   Kind
	Expand ExpandFunc
}

// Serve answers requests read from in until in is exhausted or ctx is
// cancelled. Expander panics are caught and reported to the client.
func Serve(ctx context.Context, in io.Reader, out io.Writer, macros []Macro) error {
	byName := make(map[string]Macro, len(macros))
	infos := make([]MacroInfo, 0, len(macros))
	for _, m := range macros {
		byName[m.Name] = m
		infos = append(infos, MacroInfo{Name: m.Name, Kind: m.Kind})
	}
	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Request
		if err := readFrame(r, &req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		resp := Response{ID: req.ID}
		switch req.Method {
		case methodListMacros:
			resp.Macros = infos
		case methodExpand:
			handleExpand(byName, req.Expand, &resp)
		default:
			resp.Error = fmt.Sprintf("unknown method %q", req.Method)
		}
		if err := writeFrame(w, &resp); err != nil {
			return err
		}
	}
}

func handleExpand(macros map[string]Macro, req *ExpandRequest, resp *Response) {
	if req == nil {
		resp.Error = "expand request without a body"
		return
	}
	m, ok := macros[req.Macro]
	if !ok {
		resp.Error = fmt.Sprintf("no proc macro named `%s`", req.Macro)
		return
	}
	input, err := req.Input.Tree()
	if err != nil {
		resp.Error = err.Error()
		return
	}
	var attr *tt.Subtree
	if req.Attr != nil {
		if attr, err = req.Attr.Tree(); err != nil {
			resp.Error = err.Error()
			return
		}
	}
	out, panicMsg, err := runExpander(m.Expand, input, attr, req.CallSite.Span())
	switch {
	case panicMsg != "":
		resp.Panic = panicMsg
	case err != nil:
		resp.Error = err.Error()
	case out == nil:
		resp.Error = "proc macro returned no output"
	default:
		resp.Output = Flatten(out)
	}
}

func runExpander(fn ExpandFunc, input, attr *tt.Subtree, callSite span.Span) (out *tt.Subtree, panicMsg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, panicMsg, err = nil, fmt.Sprint(r), nil
			if panicMsg == "" {
				panicMsg = "explicit panic"
			}
		}
	}()
	out, err = fn(input, attr, callSite)
	return out, "", err
}
