// Package robinapi provides a typed client for the Robin protocol, the
// Go-idiomatic replacement for the original project's robin_api.c static
// library: one method per opcode over a persistent net.Conn, with
// replies returned as ordinary (status, lines, error) values instead of
// C's caller-must-free char** reply arrays.
package robinapi

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/lzulberti/robin/internal/wire"
)

// DefaultMaxLineLength matches spec.md §6's bound on wire lines.
const DefaultMaxLineLength = 300

// Client wraps one Robin connection and offers one method per opcode.
type Client struct {
	conn       net.Conn
	reader     *wire.Reader
	maxLineLen int
}

// Dial connects to address and returns a ready Client.
func Dial(address string) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("robinapi: dial: %w", err)
	}
	return NewClient(conn, DefaultMaxLineLength), nil
}

// NewClient wraps an already-open connection.
func NewClient(conn net.Conn, maxLineLen int) *Client {
	return &Client{conn: conn, reader: wire.NewReader(conn), maxLineLen: maxLineLen}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// FollowResult is one per-target outcome of a follow request.
type FollowResult struct {
	Email string
	Code  int
}

// Cip is one posted message as returned by Cips.
type Cip struct {
	ID        int
	Timestamp int64
	Author    string
	Text      string
}

// Register sends "register <email> <password>".
func (c *Client) Register(email, password string) error {
	status, _, err := c.roundTrip("register", email, password)
	if err != nil {
		return err
	}
	return statusToErr("register", status)
}

// Login sends "login <email> <password>".
func (c *Client) Login(email, password string) error {
	status, _, err := c.roundTrip("login", email, password)
	if err != nil {
		return err
	}
	return statusToErr("login", status)
}

// Logout sends "logout".
func (c *Client) Logout() error {
	status, _, err := c.roundTrip("logout")
	if err != nil {
		return err
	}
	return statusToErr("logout", status)
}

// Follow sends "follow <email>...", returning the per-target results.
func (c *Client) Follow(emails []string) ([]FollowResult, error) {
	status, lines, err := c.roundTrip("follow", emails...)
	if err != nil {
		return nil, err
	}
	if status < 0 {
		return nil, statusToErr("follow", status)
	}

	results := make([]FollowResult, len(lines))
	for i, line := range lines {
		idx := strings.LastIndexByte(line, ' ')
		if idx < 0 {
			return nil, fmt.Errorf("robinapi: malformed follow reply line %q", line)
		}
		code, err := strconv.Atoi(line[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("robinapi: malformed follow reply line %q: %w", line, err)
		}
		results[i] = FollowResult{Email: line[:idx], Code: code}
	}
	return results, nil
}

// Followers sends "followers", returning the list of follower emails.
func (c *Client) Followers() ([]string, error) {
	status, lines, err := c.roundTrip("followers")
	if err != nil {
		return nil, err
	}
	if status < 0 {
		return nil, statusToErr("followers", status)
	}
	return lines, nil
}

// Cip sends "cip <text>", encoding embedded newlines per spec.md §6.
func (c *Client) Cip(text string) error {
	status, _, err := c.roundTrip("cip", encodeCipText(text))
	if err != nil {
		return err
	}
	return statusToErr("cip", status)
}

// Cips sends "cips [count]", returning the posted messages newest-first.
// count <= 0 requests the server's default window.
func (c *Client) Cips(count int) ([]Cip, error) {
	var status int
	var lines []string
	var err error
	if count > 0 {
		status, lines, err = c.roundTrip("cips", strconv.Itoa(count))
	} else {
		status, lines, err = c.roundTrip("cips")
	}
	if err != nil {
		return nil, err
	}
	if status < 0 {
		return nil, statusToErr("cips", status)
	}

	cips := make([]Cip, len(lines))
	for i, line := range lines {
		cip, err := parseCipLine(line)
		if err != nil {
			return nil, err
		}
		cips[i] = cip
	}
	return cips, nil
}

// Whoami sends "whoami", returning the authenticated user's email.
func (c *Client) Whoami() (string, error) {
	status, lines, err := c.roundTrip("whoami")
	if err != nil {
		return "", err
	}
	if status < 0 {
		return "", statusToErr("whoami", status)
	}
	if len(lines) != 1 {
		return "", fmt.Errorf("robinapi: whoami returned %d lines, want 1", len(lines))
	}
	return lines[0], nil
}

// Quit sends "quit" and closes the connection.
func (c *Client) Quit() error {
	_, _, err := c.roundTrip("quit")
	closeErr := c.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func statusToErr(op string, status int) error {
	if status >= 0 {
		return nil
	}
	return fmt.Errorf("robinapi: %s failed with status %d", op, status)
}

func (c *Client) roundTrip(opcode string, args ...string) (status int, lines []string, err error) {
	if err := c.send(opcode, args...); err != nil {
		return 0, nil, err
	}
	return c.readReply()
}

func (c *Client) send(opcode string, args ...string) error {
	var b requestBuilder
	b.writeOpcode(opcode)
	for _, a := range args {
		b.writeArg(a)
	}
	_, err := c.conn.Write(b.bytes())
	if err != nil {
		return fmt.Errorf("robinapi: send: %w", err)
	}
	return nil
}

func (c *Client) readReply() (status int, lines []string, err error) {
	buf := make([]byte, c.maxLineLen)

	n, err := c.reader.ReadLine(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("robinapi: reading status line: %w", err)
	}
	statusLine := strings.TrimRight(string(buf[:n]), "\r\n")
	status, err = strconv.Atoi(statusLine)
	if err != nil {
		return 0, nil, fmt.Errorf("robinapi: invalid status line %q: %w", statusLine, err)
	}
	if status <= 0 {
		return status, nil, nil
	}

	lines = make([]string, status)
	for i := 0; i < status; i++ {
		n, err := c.reader.ReadLine(buf)
		if err != nil {
			return 0, nil, fmt.Errorf("robinapi: reading reply line %d: %w", i, err)
		}
		lines[i] = strings.TrimRight(string(buf[:n]), "\r\n")
	}
	return status, lines, nil
}

// requestBuilder serializes a request line into a reusable buffer, the
// Go-idiomatic replacement for the original's vsnprintf-based variadic
// ra_send.
type requestBuilder struct {
	buf bytes.Buffer
}

func (b *requestBuilder) writeOpcode(op string) {
	b.buf.WriteString(op)
}

func (b *requestBuilder) writeArg(arg string) {
	b.buf.WriteByte(' ')
	if needsQuoting(arg) {
		b.buf.WriteString(quoteArg(arg))
	} else {
		b.buf.WriteString(arg)
	}
}

func (b *requestBuilder) bytes() []byte {
	b.buf.WriteByte('\n')
	return b.buf.Bytes()
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\"")
}

func quoteArg(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}

// encodeCipText escapes embedded newlines into the two-character \n
// sequence cip expects on the wire (spec.md §6).
func encodeCipText(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// decodeCipText is the inverse of encodeCipText, applied to cips output.
func decodeCipText(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func parseCipLine(line string) (Cip, error) {
	parts := strings.SplitN(line, " ", 4)
	if len(parts) != 4 {
		return Cip{}, fmt.Errorf("robinapi: malformed cips reply line %q", line)
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return Cip{}, fmt.Errorf("robinapi: malformed cips id %q: %w", parts[0], err)
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Cip{}, fmt.Errorf("robinapi: malformed cips timestamp %q: %w", parts[1], err)
	}

	text := strings.TrimPrefix(parts[3], `"`)
	text = strings.TrimSuffix(text, `"`)

	return Cip{ID: id, Timestamp: ts, Author: parts[2], Text: decodeCipText(text)}, nil
}
