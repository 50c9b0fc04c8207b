package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/prismhq/prism/internal/answers"
)

// Reaper periodically sweeps answers stuck in processing back to a
// claimable status.
type Reaper struct {
	answers  answers.System
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper creates a reaper that runs answers.Reap every interval.
func NewReaper(answerSystem answers.System, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		answers:  answerSystem,
		interval: interval,
		logger:   logger.With("system", "reaper"),
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	timedOut, errored, err := r.answers.Reap(ctx)
	if err != nil {
		r.logger.Error("reap sweep failed", "error", err)
		return
	}

	if timedOut > 0 || errored > 0 {
		r.logger.Info("reap sweep complete", "timed_out", timedOut, "errored", errored)
	}
}
