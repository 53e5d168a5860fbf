package robin

import (
	"strconv"
	"strings"

	"github.com/lzulberti/robin/internal/directory"
)

// authRequirement governs the UNAUTH/AUTH transition checks of
// spec.md §4.3, applied uniformly by the dispatcher before a command's
// Execute is ever called.
type authRequirement int

const (
	// authAny is valid in either state (only "quit").
	authAny authRequirement = iota
	// authRequireUnauth rejects the command with -3 if already authenticated.
	authRequireUnauth
	// authRequireAuth rejects the command with -2 if not authenticated.
	authRequireAuth
)

// Response is a Robin protocol reply: a status line followed by exactly
// max(Status, 0) lines, per spec.md §4.4.
type Response struct {
	Status int
	Lines  []string
}

// Encode renders the reply per the wire grammar of spec.md §6.
func (r Response) Encode() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(r.Status))
	sb.WriteByte('\n')
	if r.Status > 0 {
		for _, line := range r.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// errorResponse builds a terminal negative-status reply.
func errorResponse(code int) Response {
	return Response{Status: code}
}

// linesResponse builds a reply whose status is the line count.
func linesResponse(lines []string) Response {
	return Response{Status: len(lines), Lines: lines}
}

// Command is one opcode's handler.
type Command interface {
	// Name returns the lowercase opcode, per spec.md §6's grammar.
	Name() string

	// AuthRequirement reports whether this command may run in UNAUTH,
	// AUTH, or either state.
	AuthRequirement() authRequirement

	// Execute runs the command and produces a reply. An error return
	// indicates an internal failure (spec.md §7 category 3): the
	// dispatcher logs it, replies with StatusGenericFailure and ends the
	// session.
	Execute(sess *Session, dir *directory.Directory, args []string) (Response, error)
}

var commandRegistry = make(map[string]Command)

// registerCommand adds cmd to the registry, keyed by its opcode name.
func registerCommand(cmd Command) {
	commandRegistry[cmd.Name()] = cmd
}

// lookupCommand retrieves a command by opcode, exactly as received
// (opcodes are lowercase and case-sensitive per spec.md §6).
func lookupCommand(name string) (Command, bool) {
	cmd, ok := commandRegistry[name]
	return cmd, ok
}

// parseRequest tokenizes one request line (terminator already stripped)
// into an opcode and its arguments, honoring the quoted-argument grammar
// of spec.md §6:
//
//	arg      := unquoted | quoted
//	unquoted := [^\s"]+
//	quoted   := '"' ( [^"\\] | '\\' any )* '"'
//
// Only \" and \\ are collapsed during tokenizing; any other backslash
// escape (notably \n) is passed through untouched, since \n's decoding
// to a literal newline is specific to the cip command's payload (see
// decodeCipText) rather than a general quoting rule.
func parseRequest(line string) (opcode string, args []string, err error) {
	line = strings.TrimRight(line, "\r\n")
	fields, err := tokenize(line)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, ErrEmptyRequest
	}
	return fields[0], fields[1:], nil
}

func tokenize(s string) ([]string, error) {
	var tokens []string
	i, n := 0, len(s)

	for i < n {
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}

		if s[i] == '"' {
			i++
			var sb strings.Builder
			closed := false
			for i < n {
				c := s[i]
				if c == '\\' && i+1 < n {
					next := s[i+1]
					switch next {
					case '"':
						sb.WriteByte('"')
					case '\\':
						sb.WriteByte('\\')
					default:
						sb.WriteByte('\\')
						sb.WriteByte(next)
					}
					i += 2
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				sb.WriteByte(c)
				i++
			}
			if !closed {
				return nil, ErrMalformedRequest
			}
			tokens = append(tokens, sb.String())
			continue
		}

		start := i
		for i < n && s[i] != ' ' && s[i] != '\t' && s[i] != '"' {
			i++
		}
		tokens = append(tokens, s[start:i])
	}

	return tokens, nil
}

// decodeCipText decodes the two-character \n escape into a literal
// newline byte, per spec.md §6.
func decodeCipText(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// encodeCipText is the inverse of decodeCipText, used when echoing cip
// payloads back to a client (the cips command, SPEC_FULL.md §4.4).
func encodeCipText(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}
