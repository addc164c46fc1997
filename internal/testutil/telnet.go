package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/omnissiah/internal/frontend/telnet"
)

// TelnetClient is a simple Telnet test client for integration testing.
// Output it returns has IAC negotiation and ANSI colour removed.
type TelnetClient struct {
	conn    net.Conn
	t       *testing.T
	pending []byte // read but not yet returned
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

	client := &TelnetClient{conn: conn, t: t}

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return client
}

// ReadUntil reads data until the specified substring appears in the cleaned
// output or timeout occurs. It returns the cleaned output up to and including
// the match; anything after the match is kept for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the accumulated output containing substr, or fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	tmp := make([]byte, 1024)
	for {
		out := telnet.StripANSI(string(telnet.FilterIAC(c.pending)))
		if i := strings.Index(out, substr); i >= 0 {
			end := i + len(substr)
			c.pending = []byte(out[end:])
			return out[:end]
		}
		n, err := c.conn.Read(tmp)
		c.pending = append(c.pending, tmp[:n]...)
		if err != nil && n == 0 {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, out, err)
		}
	}
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
// Postcondition: text + \r\n is written to the connection.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := fmt.Fprintf(c.conn, "%s\r\n", text)
	if err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Login answers the name prompt and waits for the command prompt.
func (c *TelnetClient) Login(name string, timeout time.Duration) {
	c.t.Helper()
	c.ReadUntil("Name: ", timeout)
	c.Send(name)
	c.ReadUntil(name+"> ", timeout)
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
