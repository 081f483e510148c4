package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrMalformedKey = errors.New("malformed session key")
)
