// Package pipeline orchestrates backlog scoring: claiming answers,
// analyzing them through a backend, extracting position metrics, and
// persisting sentiment and citations. Execution mode (batch fan-out vs
// serialized single-flight) follows the selected backend's safety.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/answers"
	"github.com/prismhq/prism/internal/backends"
	"github.com/prismhq/prism/internal/brands"
	"github.com/prismhq/prism/internal/citations"
	"github.com/prismhq/prism/internal/config"
	"github.com/prismhq/prism/internal/metrics"
)

// ErrNoBackend indicates no usable backend exists for the requested brand.
// This is a configuration fault and aborts the run.
var ErrNoBackend = errors.New("no usable analysis backend")

// Runtime bundles the systems a pipeline run depends on.
type Runtime struct {
	Brands     brands.System
	Answers    answers.System
	Metrics    metrics.System
	Categories citations.CategoryCache
	Cache      *analysis.Cache

	// Primary is the configured backend. Fallback, when set, is a
	// batch-safe backend used for brands whose serialized backend the
	// breaker has disabled.
	Primary  backends.Backend
	Fallback backends.Backend
	Breaker  *backends.Breaker

	Logger *slog.Logger
	Config config.PipelineConfig
}

// System defines the public contract for pipeline runs.
type System interface {
	// ProcessBacklog scores the claimable answers for a brand and
	// customer. A nil since imposes no lower bound; a non-positive limit
	// no cap. Per-item failures are recorded in the report; only
	// configuration faults return an error.
	ProcessBacklog(
		ctx context.Context,
		brandID, customerID uuid.UUID,
		since *time.Time,
		limit int,
	) (*Report, error)
}

type pipeline struct {
	rt     *Runtime
	logger *slog.Logger
}

// New creates a pipeline implementing the System interface.
func New(rt *Runtime) System {
	return &pipeline{
		rt:     rt,
		logger: rt.Logger.With("system", "pipeline"),
	}
}
