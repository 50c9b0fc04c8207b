package backends

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/prismhq/prism/internal/analysis"
)

// SingleFlight serializes access to a backend through a weighted-1
// semaphore. Waiters are served in FIFO order, so the queue doubles as the
// process-global request queue for serialize-only backends.
type SingleFlight struct {
	inner Backend
	sem   *semaphore.Weighted
}

// Serialize wraps a backend in a single-flight queue. SafeForBatch backends
// are returned unwrapped.
func Serialize(inner Backend) Backend {
	if inner.Safety() == SafeForBatch {
		return inner
	}
	return &SingleFlight{
		inner: inner,
		sem:   semaphore.NewWeighted(1),
	}
}

func (s *SingleFlight) Name() string { return s.inner.Name() }

func (s *SingleFlight) Safety() Safety { return s.inner.Safety() }

func (s *SingleFlight) Analyze(ctx context.Context, req Request) (*analysis.Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire backend queue: %w", err)
	}
	defer s.sem.Release(1)

	return s.inner.Analyze(ctx, req)
}
