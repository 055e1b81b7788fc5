package testutil

import (
	"bufio"
	"bytes"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"
)

const (
	telnetIAC = 255
	telnetSB  = 250
	telnetSE  = 240
)

var ansiSequence = regexp.MustCompile("\x1b\\[[0-9;]*m")

// TelnetClient drives the chat console from tests. Output it returns has
// Telnet negotiation and ANSI color codes removed.
type TelnetClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
	seen   strings.Builder
}

// NewTelnetClient dials addr and closes the connection when the test ends.
//
// Precondition: addr must be a "host:port" with a listening console.
// Postcondition: Returns a connected client or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dialing console %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// ReadUntil reads until the cleaned output contains substr and returns the
// cleaned output read by this call, substr included.
//
// Precondition: substr must be non-empty.
// Postcondition: Fails the test if substr does not arrive within timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	var raw bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			c.t.Fatalf("waiting for %q: read %q: %v", substr, clean(raw.Bytes()), err)
		}
		if b == telnetIAC {
			if err := c.skipCommand(); err != nil {
				c.t.Fatalf("waiting for %q: %v", substr, err)
			}
			continue
		}
		raw.WriteByte(b)
		if out := clean(raw.Bytes()); strings.Contains(out, substr) {
			c.seen.WriteString(out)
			return out
		}
	}
}

func (c *TelnetClient) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	if cmd != telnetSB {
		if cmd >= 251 {
			_, err = c.reader.ReadByte()
		}
		return err
	}
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == telnetIAC {
			if next, err := c.reader.ReadByte(); err != nil || next == telnetSE {
				return err
			}
		}
	}
}

func clean(raw []byte) string {
	return strings.ReplaceAll(ansiSequence.ReplaceAllString(string(raw), ""), "\r\n", "\n")
}

// Send writes line followed by CRLF.
func (c *TelnetClient) Send(line string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("sending %q: %v", line, err)
	}
}

// Command sends line and returns the output up to the next prompt.
func (c *TelnetClient) Command(line, prompt string, timeout time.Duration) string {
	c.t.Helper()
	c.Send(line)
	return c.ReadUntil(prompt, timeout)
}

// Transcript returns all cleaned output returned by ReadUntil so far.
func (c *TelnetClient) Transcript() string {
	return c.seen.String()
}

// Close closes the connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
