package robin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lzulberti/robin/internal/directory"
)

func init() {
	registerCommand(registerCommand_{})
	registerCommand(loginCommand{})
	registerCommand(logoutCommand{})
	registerCommand(followCommand{})
	registerCommand(followersCommand{})
	registerCommand(cipCommand{})
	registerCommand(cipsCommand{})
	registerCommand(whoamiCommand{})
	registerCommand(quitCommand{})
}

// registerCommand_ implements "register <email> <password>".
// Named with a trailing underscore to avoid shadowing the package-level
// registerCommand function.
type registerCommand_ struct{}

func (registerCommand_) Name() string                     { return "register" }
func (registerCommand_) AuthRequirement() authRequirement { return authRequireUnauth }

func (registerCommand_) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) != 2 {
		return errorResponse(StatusInvalidArguments), nil
	}
	email, password := args[0], args[1]

	_, err := dir.Add(email, password)
	switch {
	case err == nil:
		return Response{Status: 0}, nil
	case errors.Is(err, directory.ErrInvalidEmail):
		return errorResponse(StatusInvalidArguments), nil
	case errors.Is(err, directory.ErrAlreadyExists):
		return errorResponse(StatusGenericFailure), nil
	default:
		return Response{}, fmt.Errorf("register: %w", err)
	}
}

// loginCommand implements "login <email> <password>".
type loginCommand struct{}

func (loginCommand) Name() string                     { return "login" }
func (loginCommand) AuthRequirement() authRequirement { return authRequireUnauth }

func (loginCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) != 2 {
		return errorResponse(StatusInvalidArguments), nil
	}
	email, password := args[0], args[1]

	user, err := dir.Acquire(email, password)
	switch {
	case err == nil:
		sess.setAuthenticated(user)
		return Response{Status: 0}, nil
	case errors.Is(err, directory.ErrNotFound),
		errors.Is(err, directory.ErrWrongPassword),
		errors.Is(err, directory.ErrAlreadyLoggedIn),
		errors.Is(err, directory.ErrInvalidCredentials):
		return errorResponse(StatusGenericFailure), nil
	default:
		return Response{}, fmt.Errorf("login: %w", err)
	}
}

// logoutCommand implements "logout".
type logoutCommand struct{}

func (logoutCommand) Name() string                     { return "logout" }
func (logoutCommand) AuthRequirement() authRequirement { return authRequireAuth }

func (logoutCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) != 0 {
		return errorResponse(StatusInvalidArguments), nil
	}
	dir.Release(sess.User())
	sess.clearAuthenticated()
	return Response{Status: 0}, nil
}

// followCommand implements "follow <email>[ <email>...]".
type followCommand struct{}

func (followCommand) Name() string                     { return "follow" }
func (followCommand) AuthRequirement() authRequirement { return authRequireAuth }

func (followCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) == 0 {
		return errorResponse(StatusInvalidArguments), nil
	}

	results := dir.Follow(sess.User(), args)
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%s %d", r.Target, r.Code)
	}
	return linesResponse(lines), nil
}

// followersCommand implements "followers".
type followersCommand struct{}

func (followersCommand) Name() string                     { return "followers" }
func (followersCommand) AuthRequirement() authRequirement { return authRequireAuth }

func (followersCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) != 0 {
		return errorResponse(StatusInvalidArguments), nil
	}
	return linesResponse(sess.User().Followers()), nil
}

// cipCommand implements `cip "<text>"`.
type cipCommand struct{}

func (cipCommand) Name() string                     { return "cip" }
func (cipCommand) AuthRequirement() authRequirement { return authRequireAuth }

func (cipCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) != 1 {
		return errorResponse(StatusInvalidArguments), nil
	}

	text := decodeCipText(args[0])
	_, err := dir.PostCip(sess.User(), text)
	switch {
	case err == nil:
		return Response{Status: 0}, nil
	case errors.Is(err, directory.ErrCipTooLong):
		return errorResponse(StatusInvalidArguments), nil
	default:
		return Response{}, fmt.Errorf("cip: %w", err)
	}
}

// cipsCommand implements "cips [count]", a supplement per SPEC_FULL.md §4.4.
type cipsCommand struct{}

const defaultCipsCount = 20

func (cipsCommand) Name() string                     { return "cips" }
func (cipsCommand) AuthRequirement() authRequirement { return authRequireAuth }

func (cipsCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	count := defaultCipsCount
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return errorResponse(StatusInvalidArguments), nil
		}
		count = n
	} else if len(args) > 1 {
		return errorResponse(StatusInvalidArguments), nil
	}

	cips := sess.User().Cips(count)
	lines := make([]string, len(cips))
	for i, c := range cips {
		lines[i] = fmt.Sprintf("%d %d %s \"%s\"", c.ID, c.Timestamp, c.Author, encodeCipText(c.Text))
	}
	return linesResponse(lines), nil
}

// whoamiCommand implements "whoami", a supplement per SPEC_FULL.md §4.4.
type whoamiCommand struct{}

func (whoamiCommand) Name() string                     { return "whoami" }
func (whoamiCommand) AuthRequirement() authRequirement { return authRequireAuth }

func (whoamiCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	if len(args) != 0 {
		return errorResponse(StatusInvalidArguments), nil
	}
	return linesResponse([]string{sess.User().Email}), nil
}

// quitCommand implements "quit".
type quitCommand struct{}

func (quitCommand) Name() string                     { return "quit" }
func (quitCommand) AuthRequirement() authRequirement { return authAny }

func (quitCommand) Execute(sess *Session, dir *directory.Directory, args []string) (Response, error) {
	return Response{Status: 0}, nil
}
