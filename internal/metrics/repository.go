package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prismhq/prism/pkg/query"
	"github.com/prismhq/prism/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a metric repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "metrics"),
	}
}

func (r *repo) UpsertFact(ctx context.Context, fact Fact) (*Fact, error) {
	upsertQ := `
		INSERT INTO metric_facts (
			answer_id, brand_id, customer_id, total_words,
			primary_citations, secondary_citations, citation_share
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (answer_id) DO UPDATE SET
			total_words = EXCLUDED.total_words,
			primary_citations = EXCLUDED.primary_citations,
			secondary_citations = EXCLUDED.secondary_citations,
			citation_share = EXCLUDED.citation_share,
			scored_at = NOW()
		RETURNING id, answer_id, brand_id, customer_id, total_words,
				  primary_citations, secondary_citations, citation_share,
				  scored_at`

	upsertArgs := []any{
		fact.AnswerID,
		fact.BrandID,
		fact.CustomerID,
		fact.TotalWords,
		fact.PrimaryCitations,
		fact.SecondaryCitations,
		fact.CitationShare,
	}

	f, err := repository.QueryOne(ctx, r.db, upsertQ, upsertArgs, scanFact)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Debug("fact upserted", "fact_id", f.ID, "answer_id", f.AnswerID)
	return &f, nil
}

func (r *repo) FindFactByAnswer(ctx context.Context, answerID uuid.UUID) (*Fact, error) {
	q, args := query.NewBuilder(factProjection).BuildSingle("AnswerID", answerID)

	f, err := repository.QueryOne(ctx, r.db, q, args, scanFact)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &f, nil
}

func (r *repo) UpsertBrandMetric(ctx context.Context, metric BrandMetric) error {
	positions, err := marshalPositions(metric.Positions)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(ctx, r.db, `
		INSERT INTO brand_metrics (fact_id, occurrences, positions, visibility_index, share_of_answers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fact_id) DO UPDATE SET
			occurrences = EXCLUDED.occurrences,
			positions = EXCLUDED.positions,
			visibility_index = EXCLUDED.visibility_index,
			share_of_answers = EXCLUDED.share_of_answers`,
		metric.FactID, metric.Occurrences, positions, metric.VisibilityIndex, metric.ShareOfAnswers,
	)
	if err != nil {
		return repository.MapMissingParent(err, ErrMissingFact)
	}
	return nil
}

func (r *repo) UpsertCompetitorMetric(ctx context.Context, metric CompetitorMetric) error {
	positions, err := marshalPositions(metric.Positions)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(ctx, r.db, `
		INSERT INTO competitor_metrics (fact_id, competitor, occurrences, positions, visibility_index, share_of_answers)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fact_id, competitor) DO UPDATE SET
			occurrences = EXCLUDED.occurrences,
			positions = EXCLUDED.positions,
			visibility_index = EXCLUDED.visibility_index,
			share_of_answers = EXCLUDED.share_of_answers`,
		metric.FactID, metric.Competitor, metric.Occurrences, positions, metric.VisibilityIndex, metric.ShareOfAnswers,
	)
	if err != nil {
		return repository.MapMissingParent(err, ErrMissingFact)
	}
	return nil
}

func (r *repo) UpsertSentiment(ctx context.Context, record SentimentRecord) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		INSERT INTO sentiments (fact_id, entity, score, label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fact_id, entity) DO UPDATE SET
			score = EXCLUDED.score,
			label = EXCLUDED.label`,
		record.FactID, record.Entity, record.Score, record.Label,
	)
	if err != nil {
		return repository.MapMissingParent(err, ErrMissingFact)
	}
	return nil
}

func (r *repo) UpsertCitation(ctx context.Context, citation Citation) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		INSERT INTO answer_citations (answer_id, url, domain, category, display_name, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (answer_id, url) DO UPDATE SET
			domain = EXCLUDED.domain,
			category = EXCLUDED.category,
			display_name = EXCLUDED.display_name,
			source = EXCLUDED.source`,
		citation.AnswerID, citation.URL, citation.Domain,
		citation.Category, citation.DisplayName, citation.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert citation %s: %w", citation.URL, err)
	}
	return nil
}
