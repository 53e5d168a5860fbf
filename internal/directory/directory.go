// Package directory implements the process-wide user registry: credentials,
// follow edges, and per-user cip logs, under the two-level locking
// discipline described in spec.md §3/§4.2/§5.
package directory

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MaxEmailLength is the maximum accepted email length, per spec.md §3.
const MaxEmailLength = 254

// MaxCipTextLength is the largest accepted cip payload, in bytes, after
// \n-decoding (see SPEC_FULL.md §4.2). Only the decoded text is checked:
// the line a cips listing writes for the cip (escaped text plus id,
// timestamp and author) is not checked against the 300-byte wire budget.
const MaxCipTextLength = 200

// Cip is one message in a user's append-only log.
type Cip struct {
	ID        int
	Timestamp int64
	Author    string
	Text      string
}

// UserRef is a stable reference to a directory entry. Since entries are
// never freed during normal operation (spec.md §3), a plain pointer
// suffices as the "pinning" reference find/acquire return; refCount is
// kept only as the liveness marker spec.md §3 calls for.
type UserRef = *User

// User is one entry in the directory: credentials, follow sets, and cip
// log, guarded by its own mutex.
type User struct {
	Email string

	mu           sync.RWMutex
	passwordHash string
	loggedIn     bool

	follows      []string
	followSet    map[string]struct{}
	followers    []string
	followerSet  map[string]struct{}

	cips      []Cip
	nextCipID int

	refCount atomic.Int32
}

// FollowResult is the per-target outcome of a Follow call.
type FollowResult struct {
	Target string
	Code   int
}

// Outcome codes for FollowResult, per spec.md §4.4.
const (
	FollowCodeFollowed        = 0
	FollowCodeAlreadyFollowing = 1
	FollowCodeNotFound         = -1
	FollowCodeSelfFollow       = -2
)

// Directory is the process-wide user registry.
type Directory struct {
	mu    sync.RWMutex
	users map[string]*User
	now   func() time.Time
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{
		users: make(map[string]*User),
		now:   time.Now,
	}
}

func validEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	if strings.IndexFunc(email, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || unicode.IsControl(r)
	}) >= 0 {
		return false
	}
	return true
}

// Add registers a new user. Exclusive on the directory mutex.
func (d *Directory) Add(email, password string) (UserRef, error) {
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.users[email]; exists {
		return nil, ErrAlreadyExists
	}

	u := &User{
		Email:        email,
		passwordHash: string(hash),
		followSet:    make(map[string]struct{}),
		followerSet:  make(map[string]struct{}),
	}
	d.users[email] = u
	return u, nil
}

// Find returns the user entry for email, shared on the directory mutex.
func (d *Directory) Find(email string) (UserRef, error) {
	d.mu.RLock()
	u, ok := d.users[email]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// Acquire verifies credentials and flips the logged-in flag atomically
// with respect to other Acquire/Release calls on the same entry.
func (d *Directory) Acquire(email, password string) (UserRef, error) {
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := d.Find(email)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	if u.loggedIn {
		return nil, ErrAlreadyLoggedIn
	}
	u.loggedIn = true
	u.refCount.Add(1)
	return u, nil
}

// Release clears the logged-in flag. Idempotent.
func (d *Directory) Release(ref UserRef) {
	if ref == nil {
		return
	}
	ref.mu.Lock()
	wasLoggedIn := ref.loggedIn
	ref.loggedIn = false
	ref.mu.Unlock()
	if wasLoggedIn {
		ref.refCount.Add(-1)
	}
}

// Follow processes each target independently, acquiring per-user mutexes
// in lexicographic order of email to avoid deadlock when both endpoints
// must be mutated (spec.md §4.2/§5).
func (d *Directory) Follow(acting UserRef, targets []string) []FollowResult {
	results := make([]FollowResult, len(targets))

	for i, target := range targets {
		if target == acting.Email {
			results[i] = FollowResult{Target: target, Code: FollowCodeSelfFollow}
			continue
		}

		targetUser, err := d.Find(target)
		if err != nil {
			results[i] = FollowResult{Target: target, Code: FollowCodeNotFound}
			continue
		}

		results[i] = FollowResult{Target: target, Code: d.followOne(acting, targetUser)}
	}

	return results
}

func (d *Directory) followOne(acting, target UserRef) int {
	first, second := acting, target
	if target.Email < acting.Email {
		first, second = target, acting
	}

	first.mu.Lock()
	second.mu.Lock()
	defer first.mu.Unlock()
	defer second.mu.Unlock()

	if _, already := acting.followSet[target.Email]; already {
		return FollowCodeAlreadyFollowing
	}

	acting.followSet[target.Email] = struct{}{}
	acting.follows = append(acting.follows, target.Email)
	target.followerSet[acting.Email] = struct{}{}
	target.followers = append(target.followers, acting.Email)

	return FollowCodeFollowed
}

// Followers returns a snapshot of user's follower set, in insertion order.
func (u *User) Followers() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, len(u.followers))
	copy(out, u.followers)
	return out
}

// PostCip appends a new cip to author's log under author's mutex and
// returns its assigned id.
func (d *Directory) PostCip(author UserRef, text string) (int, error) {
	if len(text) > MaxCipTextLength {
		return 0, ErrCipTooLong
	}

	author.mu.Lock()
	defer author.mu.Unlock()

	author.nextCipID++
	id := author.nextCipID
	author.cips = append(author.cips, Cip{
		ID:        id,
		Timestamp: d.now().Unix(),
		Author:    author.Email,
		Text:      text,
	})
	return id, nil
}

// Cips returns up to n of the author's most recent cips, newest first.
// n <= 0 means "all".
func (u *User) Cips(n int) []Cip {
	u.mu.RLock()
	defer u.mu.RUnlock()

	total := len(u.cips)
	count := total
	if n > 0 && n < total {
		count = n
	}

	out := make([]Cip, count)
	for i := 0; i < count; i++ {
		out[i] = u.cips[total-1-i]
	}
	return out
}

// Stats returns the total user count and total cip count across all
// users, for metrics only (not part of the wire protocol).
func (d *Directory) Stats() (users int, cips int) {
	d.mu.RLock()
	entries := make([]*User, 0, len(d.users))
	for _, u := range d.users {
		entries = append(entries, u)
	}
	d.mu.RUnlock()

	users = len(entries)
	for _, u := range entries {
		u.mu.RLock()
		cips += len(u.cips)
		u.mu.RUnlock()
	}
	return users, cips
}

// FreeAll releases every directory entry. Must only be called once no
// session holds a reference (spec.md §4.2); the caller is responsible for
// quiescing the worker pool first. Neither cmd/robind nor internal/server
// calls it.
func (d *Directory) FreeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = make(map[string]*User)
}
