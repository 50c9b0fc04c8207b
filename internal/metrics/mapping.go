package metrics

import (
	"encoding/json"
	"fmt"

	"github.com/prismhq/prism/pkg/query"
	"github.com/prismhq/prism/pkg/repository"
)

var factProjection = query.
	NewProjectionMap("public", "metric_facts", "f").
	Project("id", "ID").
	Project("answer_id", "AnswerID").
	Project("brand_id", "BrandID").
	Project("customer_id", "CustomerID").
	Project("total_words", "TotalWords").
	Project("primary_citations", "PrimaryCitations").
	Project("secondary_citations", "SecondaryCitations").
	Project("citation_share", "CitationShare").
	Project("scored_at", "ScoredAt")

func scanFact(s repository.Scanner) (Fact, error) {
	var f Fact
	err := s.Scan(
		&f.ID,
		&f.AnswerID,
		&f.BrandID,
		&f.CustomerID,
		&f.TotalWords,
		&f.PrimaryCitations,
		&f.SecondaryCitations,
		&f.CitationShare,
		&f.ScoredAt,
	)
	return f, err
}

// marshalPositions encodes positions for a jsonb column, normalizing nil
// to an empty array so stored rows never hold SQL null.
func marshalPositions(positions []int) ([]byte, error) {
	if positions == nil {
		positions = []int{}
	}
	raw, err := json.Marshal(positions)
	if err != nil {
		return nil, fmt.Errorf("marshal positions: %w", err)
	}
	return raw, nil
}
