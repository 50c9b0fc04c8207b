package metrics

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for metric persistence.
type System interface {
	// UpsertFact writes the per-answer fact, keyed on answer ID, and
	// returns the stored row with its ID populated.
	UpsertFact(ctx context.Context, fact Fact) (*Fact, error)

	FindFactByAnswer(ctx context.Context, answerID uuid.UUID) (*Fact, error)

	UpsertBrandMetric(ctx context.Context, metric BrandMetric) error
	UpsertCompetitorMetric(ctx context.Context, metric CompetitorMetric) error

	// UpsertSentiment fails with ErrMissingFact when the referenced fact
	// row does not exist.
	UpsertSentiment(ctx context.Context, record SentimentRecord) error

	UpsertCitation(ctx context.Context, citation Citation) error
}
