package backends

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/prismhq/prism/internal/brands"
)

// Breaker trips the serialized backend off for a brand after a run of
// consecutive failures. The trip persists through the brand record, so
// later runs route the brand to the batch-safe backend without retrying.
// Re-enabling is a deliberate operator action.
type Breaker struct {
	brands    brands.System
	threshold int
	logger    *slog.Logger

	mu       sync.Mutex
	failures map[uuid.UUID]int
}

// NewBreaker creates a circuit breaker that disables a brand's serialized
// backend after threshold consecutive failures.
func NewBreaker(brandSystem brands.System, threshold int, logger *slog.Logger) *Breaker {
	return &Breaker{
		brands:    brandSystem,
		threshold: threshold,
		logger:    logger.With("system", "breaker"),
		failures:  make(map[uuid.UUID]int),
	}
}

// RecordSuccess resets the brand's failure streak.
func (b *Breaker) RecordSuccess(brandID uuid.UUID) {
	b.mu.Lock()
	delete(b.failures, brandID)
	b.mu.Unlock()
}

// RecordFailure counts a failure and trips the breaker at the threshold.
// Returns true when this failure tripped it.
func (b *Breaker) RecordFailure(ctx context.Context, brandID uuid.UUID) bool {
	b.mu.Lock()
	b.failures[brandID]++
	count := b.failures[brandID]
	tripped := count >= b.threshold
	if tripped {
		delete(b.failures, brandID)
	}
	b.mu.Unlock()

	if !tripped {
		return false
	}

	b.logger.Warn("breaker tripped", "brand_id", brandID, "failures", count)

	if err := b.brands.DisableSerializedBackend(ctx, brandID); err != nil {
		b.logger.Error("failed to persist breaker trip", "brand_id", brandID, "error", err)
	}

	return true
}
