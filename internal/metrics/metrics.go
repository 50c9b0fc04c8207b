// Package metrics implements persistence for per-answer scoring output:
// the metric fact, brand and competitor visibility rows, sentiment rows,
// and categorized citations. All writes are natural-key upserts so
// re-scoring an answer overwrites rather than duplicates.
package metrics

import (
	"time"

	"github.com/google/uuid"
)

// Fact is the per-answer scoring record. Exactly one exists per answer;
// brand metrics, competitor metrics, and sentiments hang off it.
type Fact struct {
	ID                 uuid.UUID `json:"id"`
	AnswerID           uuid.UUID `json:"answer_id"`
	BrandID            uuid.UUID `json:"brand_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	TotalWords         int       `json:"total_words"`
	PrimaryCitations   int       `json:"primary_citations"`
	SecondaryCitations int       `json:"secondary_citations"`
	// CitationShare is the primary share of the citation split, distinct
	// from the per-entity mention shares on the metric rows.
	CitationShare *float64  `json:"citation_share"`
	ScoredAt      time.Time `json:"scored_at"`
}

// BrandMetric holds the brand's position, visibility, and mention-share
// figures for one fact. ShareOfAnswers is the brand's mentions against all
// competitor mentions combined.
type BrandMetric struct {
	FactID          uuid.UUID `json:"fact_id"`
	Occurrences     int       `json:"occurrences"`
	Positions       []int     `json:"positions"`
	VisibilityIndex *float64  `json:"visibility_index"`
	ShareOfAnswers  *float64  `json:"share_of_answers"`
}

// CompetitorMetric holds one competitor's position, visibility, and
// mention-share figures for one fact, keyed on (fact, competitor name).
// ShareOfAnswers counts this competitor's mentions against the brand's
// plus every other competitor's.
type CompetitorMetric struct {
	FactID          uuid.UUID `json:"fact_id"`
	Competitor      string    `json:"competitor"`
	Occurrences     int       `json:"occurrences"`
	Positions       []int     `json:"positions"`
	VisibilityIndex *float64  `json:"visibility_index"`
	ShareOfAnswers  *float64  `json:"share_of_answers"`
}

// SentimentRecord holds one entity's sentiment for one fact, keyed on
// (fact, entity). Entity is the brand or competitor name.
type SentimentRecord struct {
	FactID uuid.UUID `json:"fact_id"`
	Entity string    `json:"entity"`
	Score  int       `json:"score"`
	Label  string    `json:"label"`
}

// Citation is one categorized cited URL for an answer, keyed on
// (answer, url).
type Citation struct {
	AnswerID    uuid.UUID `json:"answer_id"`
	URL         string    `json:"url"`
	Domain      string    `json:"domain"`
	Category    string    `json:"category"`
	DisplayName string    `json:"display_name"`
	Source      string    `json:"source"`
}
