package testutil

import (
	"net"
	"strconv"
	"testing"
	"time"
)

// Listen opens a throwaway TCP listener on a loopback port. It is closed
// when the test ends.
func Listen(t *testing.T) net.Listener {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

// Frame builds a request frame: the decimal length, a newline, the payload.
func Frame(payload []byte) []byte {
	frame := strconv.AppendInt(nil, int64(len(payload)), 10)
	frame = append(frame, '\n')
	return append(frame, payload...)
}

// Exchange dials addr, writes raw, half-closes the connection and reads
// until the server closes it.
func Exchange(t *testing.T, addr string, raw []byte) []byte {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", addr, err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := conn.Write(raw); err != nil {
		t.Fatalf("Failed to write request: %v", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	var resp []byte
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		resp = append(resp, buf[:n]...)
		if err != nil {
			return resp
		}
	}
}
