package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/answers"
	"github.com/prismhq/prism/internal/backends"
	"github.com/prismhq/prism/internal/brands"
	"github.com/prismhq/prism/internal/metrics"
)

func (p *pipeline) ProcessBacklog(
	ctx context.Context,
	brandID, customerID uuid.UUID,
	since *time.Time,
	limit int,
) (*Report, error) {
	// The memory cache tier is scoped to a single run; repeat work across
	// runs is served by the persistent store.
	p.rt.Cache.Reset()

	brand, err := p.rt.Brands.Find(ctx, brandID)
	if err != nil {
		return nil, err
	}

	backend, err := p.selectBackend(brand)
	if err != nil {
		return nil, err
	}

	items, err := p.rt.Answers.ListScorable(ctx, brandID, customerID, since, limit)
	if err != nil {
		return nil, err
	}

	p.logger.Info("processing backlog",
		"brand_id", brandID,
		"items", len(items),
		"backend", backend.Name(),
		"mode", backend.Safety().String(),
	)

	report := &Report{}

	if backend.Safety() == backends.SafeForBatch {
		p.runBatch(ctx, backend, brand, items, report)
	} else {
		p.runSerialized(ctx, backend, brand, items, report)
	}

	p.logger.Info("backlog processed",
		"brand_id", brandID,
		"processed", report.Processed,
		"errors", len(report.Errors),
	)

	return report, nil
}

// selectBackend picks the backend for a brand. A serialize-only primary is
// replaced by the batch-safe fallback when the breaker has disabled it for
// this brand.
func (p *pipeline) selectBackend(brand *brands.Brand) (backends.Backend, error) {
	backend := p.rt.Primary
	if backend == nil {
		return nil, ErrNoBackend
	}

	if backend.Safety() == backends.SerializeOnly && brand.SerializedDisabled {
		if p.rt.Fallback == nil {
			return nil, ErrNoBackend
		}
		p.logger.Info("serialized backend disabled for brand, using fallback",
			"brand_id", brand.ID,
			"fallback", p.rt.Fallback.Name(),
		)
		backend = p.rt.Fallback
	}

	return backend, nil
}

// runBatch claims everything up front, fans phase 1 out across workers,
// then runs phase 2 for every item before any item enters phase 3, keeping
// the position and sentiment writes grouped per phase.
func (p *pipeline) runBatch(
	ctx context.Context,
	backend backends.Backend,
	brand *brands.Brand,
	items []answers.Answer,
	report *Report,
) {
	claimed := p.claimAll(ctx, items, report)
	if len(claimed) == 0 {
		return
	}

	results := make([]*analysis.Result, len(claimed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.rt.Config.BatchWorkers)

	for i := range claimed {
		i := i
		g.Go(func() error {
			result, err := p.analyze(gctx, backend, brand, &claimed[i])
			if err != nil {
				p.failItem(gctx, claimed[i].ID, phaseAnalyze, err, report)
				return nil
			}
			results[i] = result
			return nil
		})
	}

	// Workers never return errors; Wait only surfaces context cancellation.
	if err := g.Wait(); err != nil {
		return
	}

	facts := make([]*metrics.Fact, len(claimed))
	for i := range claimed {
		if results[i] == nil {
			continue
		}
		fact, err := p.extractPositions(ctx, brand, &claimed[i], results[i], report)
		if err != nil {
			p.failItem(ctx, claimed[i].ID, phasePositions, err, report)
			continue
		}
		facts[i] = fact
	}

	for i := range claimed {
		if facts[i] == nil {
			continue
		}
		if err := p.storeSentiment(ctx, brand, facts[i], results[i], report); err != nil {
			p.failItem(ctx, claimed[i].ID, phaseSentiment, err, report)
			continue
		}
		if err := p.rt.Answers.Complete(ctx, claimed[i].ID); err != nil {
			report.addError(claimed[i].ID, "complete", err)
			continue
		}
		report.addProcessed()
	}
}

// runSerialized claims and fully processes one item at a time. Failures
// feed the breaker; a trip mid-run switches the remaining items to the
// batch-safe fallback.
func (p *pipeline) runSerialized(
	ctx context.Context,
	backend backends.Backend,
	brand *brands.Brand,
	items []answers.Answer,
	report *Report,
) {
	consecutiveLost := 0

	for i := range items {
		item := &items[i]

		won, err := p.rt.Answers.Claim(ctx, item.ID)
		if err != nil {
			report.addError(item.ID, "claim", err)
			continue
		}
		if !won {
			consecutiveLost++
			if consecutiveLost >= p.rt.Config.ClaimGiveUp {
				p.logger.Info("giving up after consecutive lost claims", "lost", consecutiveLost)
				return
			}
			continue
		}
		consecutiveLost = 0

		serialized := backend.Safety() == backends.SerializeOnly

		result, err := p.analyze(ctx, backend, brand, item)
		if err != nil {
			p.failItem(ctx, item.ID, phaseAnalyze, err, report)
			if serialized && p.rt.Breaker != nil {
				if p.rt.Breaker.RecordFailure(ctx, brand.ID) && p.rt.Fallback != nil {
					backend = p.rt.Fallback
					p.logger.Warn("switched to fallback backend mid-run",
						"brand_id", brand.ID,
						"backend", backend.Name(),
					)
				}
			}
			continue
		}

		if p.finishItem(ctx, brand, item, result, report) && serialized && p.rt.Breaker != nil {
			p.rt.Breaker.RecordSuccess(brand.ID)
		}
	}
}

// claimAll claims items in order, giving up after the configured run of
// consecutive lost claims. Losing a claim is not an error.
func (p *pipeline) claimAll(ctx context.Context, items []answers.Answer, report *Report) []answers.Answer {
	claimed := make([]answers.Answer, 0, len(items))
	consecutiveLost := 0

	for _, item := range items {
		won, err := p.rt.Answers.Claim(ctx, item.ID)
		if err != nil {
			report.addError(item.ID, "claim", err)
			continue
		}
		if !won {
			consecutiveLost++
			if consecutiveLost >= p.rt.Config.ClaimGiveUp {
				p.logger.Info("giving up after consecutive lost claims", "lost", consecutiveLost)
				break
			}
			continue
		}
		consecutiveLost = 0
		claimed = append(claimed, item)
	}

	return claimed
}

// finishItem runs phases 2 and 3 and completes the answer. Returns true on
// success.
func (p *pipeline) finishItem(
	ctx context.Context,
	brand *brands.Brand,
	item *answers.Answer,
	result *analysis.Result,
	report *Report,
) bool {
	fact, err := p.extractPositions(ctx, brand, item, result, report)
	if err != nil {
		p.failItem(ctx, item.ID, phasePositions, err, report)
		return false
	}

	if err := p.storeSentiment(ctx, brand, fact, result, report); err != nil {
		p.failItem(ctx, item.ID, phaseSentiment, err, report)
		return false
	}

	if err := p.rt.Answers.Complete(ctx, item.ID); err != nil {
		report.addError(item.ID, "complete", err)
		return false
	}

	report.addProcessed()
	return true
}

func (p *pipeline) failItem(ctx context.Context, id uuid.UUID, phase string, err error, report *Report) {
	report.addError(id, phase, err)

	if ferr := p.rt.Answers.Fail(ctx, id, err.Error()); ferr != nil {
		p.logger.Error("failed to record item failure",
			"answer_id", id,
			"phase", phase,
			"error", ferr,
		)
	}
}
