package answers

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// System defines the public contract for answer domain operations.
type System interface {
	Find(ctx context.Context, id uuid.UUID) (*Answer, error)

	// ListScorable returns claimable answers (no status or pending/error/
	// timeout) with non-empty raw text, newest first. A nil since imposes
	// no lower bound; a non-positive limit imposes no cap.
	ListScorable(
		ctx context.Context,
		brandID, customerID uuid.UUID,
		since *time.Time,
		limit int,
	) ([]Answer, error)

	// Claim atomically transitions a claimable answer to processing.
	// Returns false when another worker won the race; losing is not an error.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	Complete(ctx context.Context, id uuid.UUID) error

	// Fail records msg and routes the answer to error or timeout status
	// depending on the failure vocabulary.
	Fail(ctx context.Context, id uuid.UUID, msg string) error

	// Reap sweeps answers stuck in processing: items past the dead
	// threshold become errors, items past the stuck threshold time out.
	Reap(ctx context.Context) (timedOut, errored int, err error)
}
