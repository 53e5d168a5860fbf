package robin

import "github.com/lzulberti/robin/internal/directory"

// sessionState is the state of the per-connection authentication state
// machine, per spec.md §4.3.
type sessionState int

const (
	// stateUnauth is the initial state: no user is logged in.
	stateUnauth sessionState = iota
	// stateAuth means a user is logged in; Session.user is non-nil.
	stateAuth
	// stateClosing means the session is tearing down.
	stateClosing
)

func (s sessionState) String() string {
	switch s {
	case stateUnauth:
		return "UNAUTH"
	case stateAuth:
		return "AUTH"
	case stateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Session holds the per-connection authentication state: the connection
// id and a cached pointer to the logged-in user entry, analogous to the
// teacher's pop3.Session (state enum + cached auth pointer).
type Session struct {
	connID string
	state  sessionState
	user   directory.UserRef
}

// NewSession creates a Session in the initial UNAUTH state.
func NewSession(connID string) *Session {
	return &Session{connID: connID, state: stateUnauth}
}

// ConnID returns the connection id passed to NewSession. internal/server
// builds it from the remote address and a per-server sequence number; it
// is not a worker slot id.
func (s *Session) ConnID() string {
	return s.connID
}

// IsAuthenticated reports whether the session is in the AUTH state.
func (s *Session) IsAuthenticated() bool {
	return s.state == stateAuth
}

// User returns the logged-in user entry, or nil if unauthenticated.
func (s *Session) User() directory.UserRef {
	return s.user
}

// setAuthenticated transitions UNAUTH -> AUTH, caching user.
func (s *Session) setAuthenticated(user directory.UserRef) {
	s.state = stateAuth
	s.user = user
}

// clearAuthenticated transitions AUTH -> UNAUTH, dropping the cached user.
func (s *Session) clearAuthenticated() {
	s.state = stateUnauth
	s.user = nil
}

// Close transitions to CLOSING. If the session was authenticated, dir is
// used to release the user entry (idempotent, safe on abnormal disconnect).
func (s *Session) Close(dir *directory.Directory) {
	if s.state == stateAuth && s.user != nil {
		dir.Release(s.user)
	}
	s.state = stateClosing
	s.user = nil
}
