package peer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"go.uber.org/zap"
)

// Conn is a line-oriented connection to the peer.
// Reads and writes happen on the session goroutine; Close may be called
// from any goroutine to unblock a pending read.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	log    *zap.SugaredLogger
}

// NewConn wraps an established connection.
func NewConn(c net.Conn, log *zap.SugaredLogger) *Conn {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Conn{
		conn:   c,
		reader: bufio.NewReader(c),
		writer: bufio.NewWriter(c),
		log:    log.With("remote", c.RemoteAddr().String()),
	}
}

// ReadLine returns the next line without its terminator. A final line
// without a newline is returned before io.EOF.
func (c *Conn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		} else {
			return "", fmt.Errorf("read from peer: %w", err)
		}
	}
	line = strings.TrimRight(line, "\r\n")
	c.log.Debugw("received", "line", line)
	return line, nil
}

// WriteLine sends one line and flushes it.
func (c *Conn) WriteLine(line string) error {
	c.log.Debugw("sent", "line", line)
	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write to peer: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("write to peer: %w", err)
	}
	return nil
}

// Send formats and writes a message.
func (c *Conn) Send(m Message) error {
	return c.WriteLine(m.String())
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
