package telnet

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"
)

// Protocol bytes from RFC 854.
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
)

// Options this server speaks about.
const (
	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptNAWS            byte = 31 // RFC 1073
)

// Window size assumed until the client sends NAWS.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Conn is one Telnet client. Reads strip protocol sequences and apply
// line editing; NAWS reports update the window size as they arrive.
type Conn struct {
	raw net.Conn
	in  *bufio.Reader

	writeMu sync.Mutex

	mu         sync.Mutex
	cols, rows int
	sized      bool

	readTimeout, writeTimeout time.Duration
}

// NewConn wraps an accepted TCP connection. Zero timeouts disable the
// per-call deadlines.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		in:           bufio.NewReader(raw),
		cols:         DefaultCols,
		rows:         DefaultRows,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead and asks the client for NAWS.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{IAC, WILL, OptSuppressGoAhead, IAC, DO, OptNAWS})
}

// Size reports the window size and whether the client has sent one.
func (c *Conn) Size() (cols, rows int, reported bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cols, c.rows, c.sized
}

// ReadLine returns the next line without its terminator. CR, LF, CR LF and
// CR NUL all end a line. Backspace and DEL erase the previous byte and other
// control bytes are dropped.
//
// Postcondition: on error the partial line read so far is returned with it.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	var line []byte
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			return string(line), err
		}
		switch {
		case b == IAC:
			literal, err := c.command()
			if err != nil {
				return string(line), err
			}
			if literal {
				line = append(line, IAC)
			}
		case b == '\n':
			return string(line), nil
		case b == '\r':
			if next, err := c.in.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.in.ReadByte()
			}
			return string(line), nil
		case b == '\b' || b == 0x7f:
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		case b >= 0x20 || b == '\t':
			line = append(line, b)
		}
	}
}

// command consumes the sequence following an IAC byte. literal is true for
// IAC IAC, which stands for a data byte of 255.
func (c *Conn) command() (literal bool, err error) {
	verb, err := c.in.ReadByte()
	if err != nil {
		return false, err
	}
	switch verb {
	case IAC:
		return true, nil
	case WILL, WONT, DO, DONT:
		_, err = c.in.ReadByte()
		return false, err
	case SB:
		payload, err := c.subnegotiation()
		if err != nil {
			return false, err
		}
		if cols, rows, ok := ParseNAWS(payload); ok && cols > 0 && rows > 0 {
			c.mu.Lock()
			c.cols, c.rows, c.sized = cols, rows, true
			c.mu.Unlock()
		}
	}
	return false, nil
}

func (c *Conn) subnegotiation() ([]byte, error) {
	var payload []byte
	escaped := false
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			return nil, err
		}
		if !escaped {
			if b == IAC {
				escaped = true
			} else {
				payload = append(payload, b)
			}
			continue
		}
		escaped = false
		if b == SE {
			return payload, nil
		}
		if b == IAC {
			payload = append(payload, IAC)
		}
	}
}

// ParseNAWS decodes the option byte and two big-endian 16-bit values of a
// NAWS subnegotiation.
func ParseNAWS(payload []byte) (cols, rows int, ok bool) {
	if len(payload) != 5 || payload[0] != OptNAWS {
		return 0, 0, false
	}
	return int(payload[1])<<8 | int(payload[2]), int(payload[3])<<8 | int(payload[4]), true
}

// Write sends p in one call under the write deadline. Concurrent writers
// never interleave.
func (c *Conn) Write(p []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(p)
	return err
}

// WriteLine sends text and CR LF.
func (c *Conn) WriteLine(text string) error {
	return c.WriteLines([]string{text})
}

// WriteLines sends every line, each ended by CR LF, as a single write.
func (c *Conn) WriteLines(lines []string) error {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteString("\r\n")
	}
	return c.Write(buf.Bytes())
}

// WritePrompt sends prompt with no line ending.
func (c *Conn) WritePrompt(prompt string) error {
	return c.Write([]byte(prompt))
}

// Close closes the TCP connection, unblocking any pending ReadLine.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr is the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
