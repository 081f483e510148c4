package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidLimit = errors.New("invalid top-N limit")
	ErrClosed       = errors.New("store is closed")
)
