package brands

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for brand domain operations.
type System interface {
	Find(ctx context.Context, id uuid.UUID) (*Brand, error)
	DisableSerializedBackend(ctx context.Context, id uuid.UUID) error
	EnableSerializedBackend(ctx context.Context, id uuid.UUID) error
}
