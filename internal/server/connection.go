package server

import (
	"net"

	"github.com/lzulberti/robin/internal/wire"
)

// Connection adapts a net.Conn into the robin.Conn surface the
// dispatcher expects: framed line reads plus raw writes.
type Connection struct {
	net.Conn
	reader *wire.Reader
}

// NewConnection wraps conn with a line-framing reader.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{Conn: conn, reader: wire.NewReader(conn)}
}

// ReadLine reads the next newline-terminated line into buf, per
// internal/wire's bounded-buffer contract.
func (c *Connection) ReadLine(buf []byte) (int, error) {
	return c.reader.ReadLine(buf)
}
