package server

import "errors"

// ErrAlreadyRunning is returned by Run if the server has already been started.
var ErrAlreadyRunning = errors.New("server already running")
