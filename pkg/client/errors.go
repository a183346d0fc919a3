package client

import (
	"errors"
	"strings"
)

// ErrUnauthorized is returned when the server rejects the session. By
// the time a caller sees it the local session has already been cleared
// and the OnUnauthorized callback fired.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNoSession is returned when no token is stored for the client's role.
var ErrNoSession = errors.New("no session for role")

// APIError is a non-2xx response carrying the server's error list.
// Messages are surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return "api error: something went wrong"
	}
	return "api error: " + strings.Join(e.Messages, "; ")
}
