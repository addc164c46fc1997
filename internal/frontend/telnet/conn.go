package telnet

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command bytes (RFC 854) and the options the bot negotiates.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// Conn is a line-oriented chat connection. Telnet commands sent by the
// client are consumed silently; writes are serialised.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. Zero timeouts disable the corresponding deadline.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead. Echo stays with the client.
func (c *Conn) Negotiate() error {
	return c.write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line without its terminator. CR, LF and CRLF all
// end a line. Control bytes other than tab are dropped.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line bytes.Buffer
	for {
		b, err := nextDataByte(c.reader)
		if err != nil {
			return line.String(), err
		}
		switch {
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b < ' ' && b != '\t':
		default:
			line.WriteByte(b)
		}
	}
}

// WriteLine sends text terminated by CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.write([]byte(text + "\r\n"))
}

// WriteText sends multi-line text with every line terminated by CRLF.
// Empty text sends nothing.
func (c *Conn) WriteText(text string) error {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return c.WriteLine(strings.ReplaceAll(text, "\n", "\r\n"))
}

// Write sends data unchanged.
func (c *Conn) Write(data []byte) error {
	return c.write(data)
}

// WritePrompt sends prompt with no line terminator.
func (c *Conn) WritePrompt(prompt string) error {
	return c.write([]byte(prompt))
}

func (c *Conn) write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(p)
	return err
}

// Close closes the network connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// FilterIAC returns input with telnet commands removed. An escaped IAC pair
// yields one literal 0xFF; a command cut off by the end of input is dropped.
func FilterIAC(input []byte) []byte {
	r := bufio.NewReader(bytes.NewReader(input))
	out := make([]byte, 0, len(input))
	for {
		b, err := nextDataByte(r)
		if err != nil {
			return out
		}
		out = append(out, b)
	}
}

// nextDataByte reads from r until it finds a byte that is not part of a
// telnet command.
func nextDataByte(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil || b != IAC {
			return b, err
		}
		cmd, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch cmd {
		case IAC:
			return IAC, nil
		case WILL, WONT, DO, DONT:
			if _, err := r.ReadByte(); err != nil {
				return 0, err
			}
		case SB:
			if err := skipSubnegotiation(r); err != nil {
				return 0, err
			}
		}
	}
}

// skipSubnegotiation consumes bytes up to and including IAC SE. IAC IAC
// inside the block is an escaped data byte.
func skipSubnegotiation(r *bufio.Reader) error {
	afterIAC := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case afterIAC && b == SE:
			return nil
		case afterIAC:
			afterIAC = false
		case b == IAC:
			afterIAC = true
		}
	}
}
