// Package analysis defines the analysis result produced by a backend and
// the two-tier cache (run-scoped memory + persistent store) in front of it.
package analysis

import "strings"

// Result is the structured output of analyzing one answer. It is treated as
// immutable once normalized; pipeline phases read from it but never write.
type Result struct {
	BrandProducts        []string             `json:"brand_products"`
	CompetitorProducts   map[string][]string  `json:"competitor_products"`
	BrandSentiment       *Sentiment           `json:"brand_sentiment"`
	CompetitorSentiments map[string]Sentiment `json:"competitor_sentiments"`
	Citations            []CitationFinding    `json:"citations"`
	Keywords             []string             `json:"keywords"`
	Quotes               []string             `json:"quotes"`
	Narrative            string               `json:"narrative"`
}

// CitationFinding categorizes one cited URL.
type CitationFinding struct {
	URL         string `json:"url"`
	Category    string `json:"category"`
	DisplayName string `json:"display_name"`
}

// Normalize enforces the result shape before any downstream use: product
// names trimmed with empties dropped, sentiment scores clamped to 1-100,
// and every label recomputed from its score. Backend-supplied labels are
// never trusted.
func (r *Result) Normalize() {
	r.BrandProducts = cleanNames(r.BrandProducts)

	for name, products := range r.CompetitorProducts {
		r.CompetitorProducts[name] = cleanNames(products)
	}

	if r.BrandSentiment != nil {
		r.BrandSentiment.normalize()
	}

	for name, s := range r.CompetitorSentiments {
		s.normalize()
		r.CompetitorSentiments[name] = s
	}
}

func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return cleaned
}
