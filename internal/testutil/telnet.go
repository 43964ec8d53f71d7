package testutil

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
)

// Telnet protocol bytes used by the client.
const (
	iac     byte = 255
	sb      byte = 250
	se      byte = 240
	optNAWS byte = 31
)

// TelnetClient is a simple Telnet test client for integration testing. It
// keeps unread output across ReadUntil calls.
type TelnetClient struct {
	conn   net.Conn
	t      *testing.T
	buffer string
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() {
		conn.Close()
	})

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until substr appears in the escape-stripped output or the
// timeout elapses. It returns the output up to and including the match and
// keeps the rest for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the stripped output containing substr, or fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	if out, ok := c.take(substr); ok {
		return out
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 4096)
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			c.buffer += string(tmp[:n])
			if out, ok := c.take(substr); ok {
				return out
			}
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, color.ClearCode(c.buffer), err)
		}
	}
}

func (c *TelnetClient) take(substr string) (string, bool) {
	plain := color.ClearCode(c.buffer)
	idx := strings.Index(plain, substr)
	if idx < 0 {
		return "", false
	}
	end := idx + len(substr)
	c.buffer = plain[end:]
	return plain[:end], true
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
// Postcondition: text + \r\n is written to the connection.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	c.write([]byte(text + "\r\n"))
}

// SendWindowSize reports a terminal size through a NAWS sub-negotiation.
func (c *TelnetClient) SendWindowSize(cols, rows int) {
	c.t.Helper()
	c.write([]byte{iac, sb, optNAWS, byte(cols >> 8), byte(cols), byte(rows >> 8), byte(rows), iac, se})
}

func (c *TelnetClient) write(data []byte) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write(data); err != nil {
		c.t.Fatalf("sending %q: %v", data, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
