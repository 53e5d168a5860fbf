package robin

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/lzulberti/robin/internal/directory"
	"github.com/lzulberti/robin/internal/metrics"
	"github.com/lzulberti/robin/internal/wire"
)

// fakeConn feeds a scripted sequence of request lines to HandleConnection
// and records every reply written back.
type fakeConn struct {
	lines []string
	idx   int
	out   bytes.Buffer
}

func (c *fakeConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c *fakeConn) ReadLine(buf []byte) (int, error) {
	if c.idx >= len(c.lines) {
		return 0, wire.ErrConnectionClosed
	}
	line := c.lines[c.idx]
	c.idx++
	n := copy(buf, line)
	return n, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytesDiscard{}, nil))
}

type bytesDiscard struct{}

func (bytesDiscard) Write(p []byte) (int, error) { return len(p), nil }

func TestHandleConnectionFullSession(t *testing.T) {
	conn := &fakeConn{lines: []string{
		"register alice@example.com hunter2",
		"login alice@example.com hunter2",
		"whoami",
		`cip "hello there"`,
		"cips",
		"logout",
		"quit",
	}}

	dir := directory.New()
	HandleConnection("test-conn", conn, dir, testLogger(), &metrics.NoopCollector{}, 300)

	replies := strings.Split(strings.TrimRight(conn.out.String(), "\n"), "\n")
	// register -> "0"
	if replies[0] != "0" {
		t.Errorf("register reply = %q, want '0'", replies[0])
	}
}

func TestHandleConnectionRejectsUnknownCommand(t *testing.T) {
	conn := &fakeConn{lines: []string{"bogus"}}
	dir := directory.New()
	HandleConnection("test-conn", conn, dir, testLogger(), &metrics.NoopCollector{}, 300)

	if !strings.HasPrefix(conn.out.String(), "-5") {
		t.Errorf("output = %q, want prefix '-5'", conn.out.String())
	}
}

func TestHandleConnectionRequiresAuthForFollow(t *testing.T) {
	conn := &fakeConn{lines: []string{"follow bob@example.com"}}
	dir := directory.New()
	HandleConnection("test-conn", conn, dir, testLogger(), &metrics.NoopCollector{}, 300)

	if !strings.HasPrefix(conn.out.String(), "-2") {
		t.Errorf("output = %q, want prefix '-2' (not authenticated)", conn.out.String())
	}
}

func TestHandleConnectionRejectsLoginWhileAuthenticated(t *testing.T) {
	conn := &fakeConn{lines: []string{
		"register alice@example.com hunter2",
		"login alice@example.com hunter2",
		"login alice@example.com hunter2",
	}}
	dir := directory.New()
	HandleConnection("test-conn", conn, dir, testLogger(), &metrics.NoopCollector{}, 300)

	replies := strings.Split(strings.TrimRight(conn.out.String(), "\n"), "\n")
	if replies[2] != "-3" {
		t.Errorf("third reply = %q, want '-3' (already authenticated)", replies[2])
	}
}

func TestHandleConnectionEmptyLineIsSkipped(t *testing.T) {
	conn := &fakeConn{lines: []string{"", "quit"}}
	dir := directory.New()
	HandleConnection("test-conn", conn, dir, testLogger(), &metrics.NoopCollector{}, 300)

	replies := strings.Split(strings.TrimRight(conn.out.String(), "\n"), "\n")
	if len(replies) != 1 || replies[0] != "0" {
		t.Errorf("replies = %v, want just the quit reply '0'", replies)
	}
}

func TestHandleConnectionCloseReleasesUserOnAbruptDisconnect(t *testing.T) {
	conn := &fakeConn{lines: []string{
		"register alice@example.com hunter2",
		"login alice@example.com hunter2",
	}}
	dir := directory.New()
	HandleConnection("test-conn", conn, dir, testLogger(), &metrics.NoopCollector{}, 300)

	user, err := dir.Find("alice@example.com")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	// A second session should be able to log in again now that the
	// connection above closed (abrupt disconnect releases the session).
	conn2 := &fakeConn{lines: []string{"login alice@example.com hunter2"}}
	HandleConnection("test-conn-2", conn2, dir, testLogger(), &metrics.NoopCollector{}, 300)

	if !strings.HasPrefix(conn2.out.String(), "0") {
		t.Errorf("second login = %q, want success after first connection released the user %v", conn2.out.String(), user.Email)
	}
}
