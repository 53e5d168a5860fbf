package directory

import "errors"

// Directory-level errors, surfaced to callers as ordinary outcomes per
// spec.md §4.2's failure model (credential mismatch and not-found are
// user-visible outcomes, not directory errors).
var (
	// ErrAlreadyExists is returned by Add when the email is already registered.
	ErrAlreadyExists = errors.New("directory: user already exists")

	// ErrInvalidEmail is returned by Add when the email fails validation.
	ErrInvalidEmail = errors.New("directory: invalid email")

	// ErrNotFound is returned when an email has no corresponding user entry.
	ErrNotFound = errors.New("directory: user not found")

	// ErrWrongPassword is returned by Acquire on a credential mismatch.
	ErrWrongPassword = errors.New("directory: wrong password")

	// ErrAlreadyLoggedIn is returned by Acquire when the user entry's
	// logged-in flag is already set.
	ErrAlreadyLoggedIn = errors.New("directory: already logged in")

	// ErrSelfFollow describes a follow target equal to the acting user.
	// Follow does not return it; it reports the case as FollowCodeSelfFollow.
	ErrSelfFollow = errors.New("directory: cannot follow self")

	// ErrAlreadyFollowing describes a target that is already followed.
	// Follow does not return it; it reports the case as
	// FollowCodeAlreadyFollowing.
	ErrAlreadyFollowing = errors.New("directory: already following")

	// ErrInvalidCredentials is returned when a password is empty.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")

	// ErrCipTooLong is returned when a cip payload is longer than
	// MaxCipTextLength bytes.
	ErrCipTooLong = errors.New("directory: cip payload too long")

	// ErrInternal wraps unexpected failures (e.g. bcrypt hashing failure).
	ErrInternal = errors.New("directory: internal error")
)
