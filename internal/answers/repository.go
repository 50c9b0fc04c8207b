package answers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prismhq/prism/pkg/query"
	"github.com/prismhq/prism/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	stuckAfter time.Duration
	deadAfter  time.Duration
}

// New creates an answer repository implementing the System interface.
// stuckAfter and deadAfter are the reaper thresholds for processing items;
// deadAfter must exceed stuckAfter.
func New(db *sql.DB, logger *slog.Logger, stuckAfter, deadAfter time.Duration) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "answers"),
		stuckAfter: stuckAfter,
		deadAfter:  deadAfter,
	}
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Answer, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnswer)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) ListScorable(
	ctx context.Context,
	brandID, customerID uuid.UUID,
	since *time.Time,
	limit int,
) ([]Answer, error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("BrandID", brandID).
		WhereEquals("CustomerID", customerID).
		WhereSince("CreatedAt", since).
		WhereNotEmpty("RawText").
		WhereRaw(claimableClause)

	q, args := qb.BuildLimit(limit)

	items, err := repository.QueryMany(ctx, r.db, q, args, scanAnswer)
	if err != nil {
		return nil, fmt.Errorf("query scorable answers: %w", err)
	}
	return items, nil
}

func (r *repo) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	rows, err := repository.ExecCount(ctx, r.db, `
		UPDATE answers
		SET scoring_status = 'processing',
			scoring_started_at = NOW(),
			scoring_completed_at = NULL,
			scoring_error = NULL
		WHERE id = $1
		  AND (scoring_status IS NULL OR scoring_status IN ('pending', 'error', 'timeout'))`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("claim answer %s: %w", id, err)
	}

	if rows == 0 {
		r.logger.Debug("claim lost", "answer_id", id)
		return false, nil
	}

	return true, nil
}

func (r *repo) Complete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE answers
		SET scoring_status = 'completed',
			scoring_completed_at = NOW(),
			scoring_error = NULL
		WHERE id = $1 AND scoring_status = 'processing'`,
		id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotClaimed, ErrDuplicate)
	}

	r.logger.Info("answer completed", "answer_id", id)
	return nil
}

func (r *repo) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	status := FailureStatus(msg)

	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE answers
		SET scoring_status = $1,
			scoring_completed_at = NOW(),
			scoring_error = $2
		WHERE id = $3 AND scoring_status = 'processing'`,
		status, msg, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotClaimed, ErrDuplicate)
	}

	r.logger.Warn("answer failed", "answer_id", id, "status", status, "error", msg)
	return nil
}

// Reap runs both sweeps in one transaction, applying the ReapStatus
// routing: the dead sweep goes first so a row past both thresholds lands
// in error rather than timeout. Cutoffs are computed once so both updates
// see the same clock.
func (r *repo) Reap(ctx context.Context) (int, int, error) {
	type counts struct {
		timedOut int64
		errored  int64
	}

	now := time.Now()
	deadCutoff := now.Add(-r.deadAfter)
	stuckCutoff := now.Add(-r.stuckAfter)

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (counts, error) {
		errored, err := repository.ExecCount(ctx, tx, `
			UPDATE answers
			SET scoring_status = 'error',
				scoring_completed_at = NOW(),
				scoring_error = 'abandoned: processing exceeded dead threshold'
			WHERE scoring_status = 'processing'
			  AND scoring_started_at <= $1`,
			deadCutoff,
		)
		if err != nil {
			return counts{}, fmt.Errorf("reap dead answers: %w", err)
		}

		timedOut, err := repository.ExecCount(ctx, tx, `
			UPDATE answers
			SET scoring_status = 'timeout',
				scoring_completed_at = NOW(),
				scoring_error = 'reaped: processing exceeded stuck threshold'
			WHERE scoring_status = 'processing'
			  AND scoring_started_at <= $1`,
			stuckCutoff,
		)
		if err != nil {
			return counts{}, fmt.Errorf("reap stuck answers: %w", err)
		}

		return counts{timedOut: timedOut, errored: errored}, nil
	})

	if err != nil {
		return 0, 0, err
	}

	if result.timedOut > 0 || result.errored > 0 {
		r.logger.Info("reaped stuck answers",
			"timed_out", result.timedOut,
			"errored", result.errored,
		)
	}

	return int(result.timedOut), int(result.errored), nil
}
