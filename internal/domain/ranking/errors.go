package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidCapacity = errors.New("board capacity out of range")
)
