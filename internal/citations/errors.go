package citations

import "errors"

// Domain errors for citation category operations.
var (
	ErrNotFound  = errors.New("citation category not found")
	ErrDuplicate = errors.New("citation category already exists")
)
