// Package client sends source payloads to a symdex server.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"symdex/internal/protocol"
	"symdex/internal/symtab"
)

// DefaultTimeout bounds one exchange when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// Client talks to one server address. Every call opens its own connection.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// New creates a client for addr. A zero timeout uses DefaultTimeout.
func New(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{addr: addr, timeout: timeout}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Index sends source and decodes the response. A server-side parse failure
// comes back as a *errors.SymdexError with its position.
func (c *Client) Index(ctx context.Context, source []byte) (*symtab.Table, error) {
	raw, err := c.Exchange(ctx, source)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeResponse(raw)
}

// Exchange performs one raw request and returns the full response body.
func (c *Client) Exchange(ctx context.Context, source []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := protocol.WriteRequest(conn, source); err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return nil, fmt.Errorf("close write: %w", err)
		}
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("read response: %w", ctx.Err())
		}
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
