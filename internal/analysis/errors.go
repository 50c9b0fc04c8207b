package analysis

import "errors"

// Domain errors for analysis cache operations.
var (
	ErrCacheMiss = errors.New("analysis not cached")
	ErrDuplicate = errors.New("analysis already cached")
)
