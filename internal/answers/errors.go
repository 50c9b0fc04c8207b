package answers

import "errors"

// Domain errors for answer operations.
var (
	ErrNotFound  = errors.New("answer not found")
	ErrDuplicate = errors.New("answer already exists")
	// ErrNotClaimed is returned by Complete and Fail when the answer is not
	// in processing status, e.g. after the reaper has reclaimed it.
	ErrNotClaimed = errors.New("answer is not claimed")
)
