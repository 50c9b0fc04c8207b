package brands

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prismhq/prism/pkg/query"
	"github.com/prismhq/prism/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a brand repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "brands"),
	}
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Brand, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	b, err := repository.QueryOne(ctx, r.db, q, args, scanBrand)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &b, nil
}

func (r *repo) DisableSerializedBackend(ctx context.Context, id uuid.UUID) error {
	if err := r.setSerializedDisabled(ctx, id, true); err != nil {
		return err
	}

	r.logger.Warn("serialized backend disabled", "brand_id", id)
	return nil
}

func (r *repo) EnableSerializedBackend(ctx context.Context, id uuid.UUID) error {
	if err := r.setSerializedDisabled(ctx, id, false); err != nil {
		return err
	}

	r.logger.Info("serialized backend enabled", "brand_id", id)
	return nil
}

func (r *repo) setSerializedDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE brands SET serialized_disabled = $1, updated_at = NOW() WHERE id = $2",
		disabled, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}
