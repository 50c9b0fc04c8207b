package metrics

import "errors"

// Domain errors for metric operations.
var (
	ErrNotFound  = errors.New("metric fact not found")
	ErrDuplicate = errors.New("metric fact already exists")
	// ErrMissingFact is returned when a dependent row (metric, sentiment)
	// is written before its fact exists.
	ErrMissingFact = errors.New("no metric fact for answer")
)
