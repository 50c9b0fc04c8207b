package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prismhq/prism/pkg/repository"
)

// Store persists analysis results across runs.
type Store interface {
	// Get returns the stored result for an answer, or ErrCacheMiss.
	Get(ctx context.Context, answerID uuid.UUID) (*Result, error)
	Put(ctx context.Context, answerID uuid.UUID, result *Result) error
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed analysis store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &store{
		db:     db,
		logger: logger.With("system", "analysis-store"),
	}
}

func (s *store) Get(ctx context.Context, answerID uuid.UUID) (*Result, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM analysis_cache WHERE answer_id = $1",
		answerID,
	).Scan(&payload)
	if err != nil {
		return nil, repository.MapError(err, ErrCacheMiss, ErrDuplicate)
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal cached analysis: %w", err)
	}

	return &result, nil
}

// Put stores the result keyed on answer ID. Citations are stripped before
// writing; the citation category cache owns them across brands.
func (s *store) Put(ctx context.Context, answerID uuid.UUID, result *Result) error {
	stripped := *result
	stripped.Citations = nil

	payload, err := json.Marshal(&stripped)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	err = repository.ExecExpectOne(ctx, s.db, `
		INSERT INTO analysis_cache (answer_id, payload)
		VALUES ($1, $2)
		ON CONFLICT (answer_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()`,
		answerID, payload,
	)
	if err != nil {
		return fmt.Errorf("store analysis for %s: %w", answerID, err)
	}

	return nil
}
