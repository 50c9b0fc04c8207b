package brands

import "errors"

// Domain errors for brand operations.
var (
	ErrNotFound  = errors.New("brand not found")
	ErrDuplicate = errors.New("brand already exists")
)
