package procmacro

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"rill/internal/span"
	"rill/internal/tt"
)

// DefaultTimeout bounds one request when the client has no explicit timeout.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is the cause of a PanicError for a request that got no answer
// in time.
var ErrTimeout = errors.New("proc-macro server did not answer in time")

// PanicError reports a proc macro that panicked, hung or lost its server.
type PanicError struct {
	Macro string
	Msg   string
	// Cause is set when the failure was on the transport rather than in
	// the macro itself.
	Cause error
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("proc macro `%s` panicked: %s", e.Macro, e.Msg)
}

func (e *PanicError) Unwrap() error { return e.Cause }

// Dialer opens a connection to a server.
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

type processConn struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	io.Reader
}

func (p *processConn) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p *processConn) Close() error {
	// закрытый stdin — штатный сигнал завершения; убиваем, если не помогло
	_ = p.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		_ = p.cmd.Process.Kill()
		return <-done
	}
}

// Command dials by starting a server process that speaks the protocol on
// its stdin and stdout.
func Command(name string, args ...string) Dialer {
	return func(context.Context) (io.ReadWriteCloser, error) {
		cmd := exec.Command(name, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start proc-macro server %s: %w", name, err)
		}
		return &processConn{cmd: cmd, stdin: stdin, Reader: stdout}, nil
	}
}

type conn struct {
	rwc io.ReadWriteCloser
	r   *bufio.Reader
	w   *bufio.Writer
}

// Client sends requests to one server, one at a time. The server is dialed
// lazily and redialed after it hangs or dies.
type Client struct {
	dial    Dialer
	timeout time.Duration

	// turn is held by the request on the wire. Waiting for it counts
	// against the waiter's own deadline.
	turn chan struct{}

	mu     sync.Mutex
	conn   *conn
	nextID uint64
	dials  int
}

// NewClient creates a client; timeout <= 0 means DefaultTimeout.
func NewClient(dial Dialer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{dial: dial, timeout: timeout, turn: make(chan struct{}, 1)}
}

// Dials reports how many connections the client has opened.
func (c *Client) Dials() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dials
}

// Close drops the current connection, if any. A request in flight fails.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.rwc.Close()
	c.conn = nil
	return err
}

// drop closes cn unless it was already replaced.
func (c *Client) drop(cn *conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == cn {
		_ = cn.rwc.Close()
		c.conn = nil
	}
}

// connect returns the live connection, dialing one when needed, and the id
// for the next request.
func (c *Client) connect(ctx context.Context) (*conn, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		rwc, err := c.dial(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("dial proc-macro server: %w", err)
		}
		c.dials++
		c.conn = &conn{rwc: rwc, r: bufio.NewReader(rwc), w: bufio.NewWriter(rwc)}
	}
	c.nextID++
	return c.conn, c.nextID, nil
}

type reply struct {
	resp Response
	err  error
}

func deadlineErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

func (c *Client) call(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case c.turn <- struct{}{}:
	case <-ctx.Done():
		return nil, deadlineErr(ctx)
	}
	defer func() { <-c.turn }()

	cn, id, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	req.ID = id

	ch := make(chan reply, 1)
	go func() {
		if err := writeFrame(cn.w, req); err != nil {
			ch <- reply{err: err}
			return
		}
		var r reply
		r.err = readFrame(cn.r, &r.resp)
		ch <- r
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			c.drop(cn)
			return nil, r.err
		}
		if r.resp.ID != req.ID {
			c.drop(cn)
			return nil, fmt.Errorf("response id %d does not match request %d", r.resp.ID, req.ID)
		}
		return &r.resp, nil
	case <-ctx.Done():
		// закрытие соединения разблокирует горутину чтения
		c.drop(cn)
		return nil, deadlineErr(ctx)
	}
}

// ListMacros asks the server which macros it hosts.
func (c *Client) ListMacros(ctx context.Context) ([]MacroInfo, error) {
	resp, err := c.call(ctx, &Request{Method: methodListMacros})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp.Macros, nil
}

// Expand runs a macro on the server. Transport failures and panics come
// back as *PanicError; a malformed result wraps ErrMalformed.
func (c *Client) Expand(ctx context.Context, macro string, input, attr *tt.Subtree, callSite span.Span) (*tt.Subtree, error) {
	req := &Request{Method: methodExpand, Expand: &ExpandRequest{
		Macro:    macro,
		Input:    Flatten(input),
		CallSite: flatSpan(callSite),
	}}
	if attr != nil {
		req.Expand.Attr = Flatten(attr)
	}
	resp, err := c.call(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &PanicError{Macro: macro, Msg: err.Error(), Cause: err}
	}
	switch {
	case resp.Panic != "":
		return nil, &PanicError{Macro: macro, Msg: resp.Panic}
	case resp.Error != "":
		return nil, fmt.Errorf("proc macro `%s`: %s", macro, resp.Error)
	}
	out, err := resp.Output.Tree()
	if err != nil {
		return nil, fmt.Errorf("proc macro `%s` returned a %w", macro, err)
	}
	return out, nil
}
