// Package robin implements the per-connection Robin protocol session: the
// authentication state machine (C3) and the command dispatcher (C4) of
// spec.md §4.3/§4.4.
package robin

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lzulberti/robin/internal/directory"
	"github.com/lzulberti/robin/internal/metrics"
	"github.com/lzulberti/robin/internal/wire"
)

// Conn is the minimal connection surface the dispatcher needs: framed
// line reads and raw writes. internal/server.Connection satisfies this.
type Conn interface {
	io.Writer
	ReadLine(buf []byte) (int, error)
}

// HandleConnection runs the command loop for one connection until the
// client disconnects, sends quit, or a transport/internal error occurs.
// maxLineLen is the capacity of the buffer each request line is read into
// (spec.md §6's bound); reply lines are written as produced and are not
// checked against it.
func HandleConnection(connID string, conn Conn, dir *directory.Directory, logger *slog.Logger, collector metrics.Collector, maxLineLen int) {
	sess := NewSession(connID)
	defer sess.Close(dir)

	buf := make([]byte, maxLineLen)

	for {
		n, err := conn.ReadLine(buf)
		if err != nil {
			switch {
			case errors.Is(err, wire.ErrConnectionClosed):
				logger.Debug("client closed connection", "conn", connID)
			case errors.Is(err, wire.ErrTruncated):
				logger.Debug("connection truncated mid-line", "conn", connID)
			case errors.Is(err, wire.ErrLineTooLong):
				logger.Warn("line too long, closing connection", "conn", connID)
			default:
				logger.Warn("read error, closing connection", "conn", connID, "error", err)
			}
			return
		}

		line := string(buf[:n])
		opcode, args, err := parseRequest(line)
		if err != nil {
			if errors.Is(err, ErrEmptyRequest) {
				continue
			}
			writeReply(conn, logger, connID, errorResponse(StatusInvalidArguments))
			continue
		}

		cmd, ok := lookupCommand(opcode)
		if !ok {
			writeReply(conn, logger, connID, errorResponse(StatusUnknownCommand))
			continue
		}

		switch cmd.AuthRequirement() {
		case authRequireAuth:
			if !sess.IsAuthenticated() {
				writeReply(conn, logger, connID, errorResponse(StatusNotAuthenticated))
				continue
			}
		case authRequireUnauth:
			if sess.IsAuthenticated() {
				writeReply(conn, logger, connID, errorResponse(StatusAlreadyAuthenticated))
				continue
			}
		}

		collector.CommandProcessed(opcode)

		resp, err := cmd.Execute(sess, dir, args)
		if err != nil {
			logger.Error("internal error executing command", "conn", connID, "command", opcode, "error", err)
			writeReply(conn, logger, connID, errorResponse(StatusGenericFailure))
			return
		}

		if opcode == "login" || opcode == "register" {
			collector.AuthAttempt(resp.Status == 0)
		}
		if opcode == "follow" {
			for _, l := range resp.Lines {
				collector.FollowProcessed(followLineCode(l))
			}
		}
		if opcode == "cip" && resp.Status == 0 {
			collector.CipPosted()
		}

		if !writeReply(conn, logger, connID, resp) {
			return
		}

		if opcode == "quit" {
			logger.Debug("quit received, closing connection", "conn", connID)
			return
		}
	}
}

func writeReply(conn Conn, logger *slog.Logger, connID string, resp Response) bool {
	if _, err := io.WriteString(conn, resp.Encode()); err != nil {
		logger.Warn("failed to write reply", "conn", connID, "error", err)
		return false
	}
	return true
}

// followLineCode extracts the trailing "<email> <code>" code from one
// follow reply line, for metrics only.
func followLineCode(line string) int {
	idx := strings.LastIndexByte(line, ' ')
	if idx < 0 {
		return 0
	}
	code, err := strconv.Atoi(line[idx+1:])
	if err != nil {
		return 0
	}
	return code
}
