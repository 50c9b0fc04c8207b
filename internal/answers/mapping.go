package answers

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prismhq/prism/pkg/query"
	"github.com/prismhq/prism/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "answers", "a").
	Project("id", "ID").
	Project("brand_id", "BrandID").
	Project("customer_id", "CustomerID").
	Project("prompt", "Prompt").
	Project("raw_text", "RawText").
	Project("competitors", "Competitors").
	Project("citation_urls", "CitationURLs").
	Project("scoring_status", "ScoringStatus").
	Project("scoring_started_at", "ScoringStartedAt").
	Project("scoring_completed_at", "ScoringCompletedAt").
	Project("scoring_error", "ScoringError").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// claimableClause is the SQL form of Claimable. Must stay in sync with it
// and with the guard in Claim.
const claimableClause = "(a.scoring_status IS NULL OR a.scoring_status IN ('pending', 'error', 'timeout'))"

func scanAnswer(s repository.Scanner) (Answer, error) {
	var a Answer
	var status sql.NullString
	var competitorsRaw, citationsRaw []byte

	err := s.Scan(
		&a.ID,
		&a.BrandID,
		&a.CustomerID,
		&a.Prompt,
		&a.RawText,
		&competitorsRaw,
		&citationsRaw,
		&status,
		&a.ScoringStartedAt,
		&a.ScoringCompletedAt,
		&a.ScoringError,
		&a.CreatedAt,
	)

	if err != nil {
		return a, err
	}

	a.ScoringStatus = status.String

	if len(competitorsRaw) > 0 {
		if err := json.Unmarshal(competitorsRaw, &a.Competitors); err != nil {
			return a, fmt.Errorf("unmarshal competitors: %w", err)
		}
	}

	if len(citationsRaw) > 0 {
		if err := json.Unmarshal(citationsRaw, &a.CitationURLs); err != nil {
			return a, fmt.Errorf("unmarshal citation_urls: %w", err)
		}
	}

	if a.Competitors == nil {
		a.Competitors = []Competitor{}
	}

	if a.CitationURLs == nil {
		a.CitationURLs = []string{}
	}

	return a, nil
}
