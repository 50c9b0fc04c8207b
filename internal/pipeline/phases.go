package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/answers"
	"github.com/prismhq/prism/internal/backends"
	"github.com/prismhq/prism/internal/brands"
	"github.com/prismhq/prism/internal/citations"
	"github.com/prismhq/prism/internal/metrics"
	"github.com/prismhq/prism/pkg/scoring"
	"github.com/prismhq/prism/pkg/textmatch"
)

// Phase names recorded on item errors.
const (
	phaseAnalyze   = "analyze"
	phasePositions = "positions"
	phaseSentiment = "sentiment"
)

// analyze runs phase 1 for one answer: cache lookup, then the backend with
// a small fixed retry on unusable output. Successful results land in both
// cache tiers.
func (p *pipeline) analyze(
	ctx context.Context,
	backend backends.Backend,
	brand *brands.Brand,
	item *answers.Answer,
) (*analysis.Result, error) {
	if cached, err := p.rt.Cache.Get(ctx, item.ID); err == nil {
		p.logger.Debug("analysis cache hit", "answer_id", item.ID)
		return cached, nil
	}

	competitors := make(map[string][]string, len(item.Competitors))
	for _, c := range item.Competitors {
		competitors[c.Name] = c.Products
	}

	urls := collectURLs(item)
	_, misses, err := p.rt.Categories.Lookup(ctx, urls)
	if err != nil {
		// Category lookup is an optimization; analyze everything instead.
		p.logger.Warn("citation category lookup failed", "answer_id", item.ID, "error", err)
		misses = urls
	}

	req := backends.Request{
		BrandName:         brand.Name,
		BrandProducts:     brand.Products,
		BrandWebsites:     brand.Websites,
		Competitors:       competitors,
		RawText:           item.RawText,
		UncategorizedURLs: misses,
	}

	var result *analysis.Result
	for attempt := 0; ; attempt++ {
		result, err = backend.Analyze(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, backends.ErrUnusableResult) || attempt >= p.rt.Config.ParseRetries {
			return nil, fmt.Errorf("analyze answer %s: %w", item.ID, err)
		}
		p.logger.Warn("unusable backend output, retrying",
			"answer_id", item.ID,
			"attempt", attempt+1,
		)
	}

	p.rt.Cache.Put(ctx, item.ID, result)
	return result, nil
}

// extractPositions runs phase 2: upserts the fact, writes brand and
// competitor position metrics, and persists categorized citations. Zero
// mentions is a successful outcome.
func (p *pipeline) extractPositions(
	ctx context.Context,
	brand *brands.Brand,
	item *answers.Answer,
	result *analysis.Result,
	report *Report,
) (*metrics.Fact, error) {
	tokens := textmatch.Tokenize(item.RawText)
	totalWords := len(tokens)

	urls := collectURLs(item)
	primary, secondary := 0, 0
	for _, u := range urls {
		if citations.Classify(u, brand.Websites) == citations.SourcePrimary {
			primary++
		} else {
			secondary++
		}
	}

	fact, err := p.rt.Metrics.UpsertFact(ctx, metrics.Fact{
		AnswerID:           item.ID,
		BrandID:            brand.ID,
		CustomerID:         item.CustomerID,
		TotalWords:         totalWords,
		PrimaryCitations:   primary,
		SecondaryCitations: secondary,
		CitationShare:      scoring.ShareOfAnswers(primary, secondary),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert fact for %s: %w", item.ID, err)
	}

	// Every entity's mentions are counted before any share is computed:
	// each share is that entity's mentions against everyone else's.
	brandTerms := append([]string{brand.Name}, brand.Products...)
	brandTerms = append(brandTerms, result.BrandProducts...)
	brandOcc, brandPos := entityMentions(tokens, brandTerms)

	compOcc := make([]int, len(item.Competitors))
	compPos := make([][]int, len(item.Competitors))
	totalCompOcc := 0
	for i, comp := range item.Competitors {
		terms := append([]string{comp.Name}, comp.Products...)
		terms = append(terms, result.CompetitorProducts[comp.Name]...)
		compOcc[i], compPos[i] = entityMentions(tokens, terms)
		totalCompOcc += compOcc[i]
	}

	err = p.rt.Metrics.UpsertBrandMetric(ctx, metrics.BrandMetric{
		FactID:          fact.ID,
		Occurrences:     brandOcc,
		Positions:       brandPos,
		VisibilityIndex: scoring.VisibilityIndex(brandOcc, brandPos, totalWords),
		ShareOfAnswers:  scoring.ShareOfAnswers(brandOcc, totalCompOcc),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert brand metric for %s: %w", item.ID, err)
	}
	report.addPositions(1)

	for i, comp := range item.Competitors {
		others := brandOcc + totalCompOcc - compOcc[i]

		err = p.rt.Metrics.UpsertCompetitorMetric(ctx, metrics.CompetitorMetric{
			FactID:          fact.ID,
			Competitor:      comp.Name,
			Occurrences:     compOcc[i],
			Positions:       compPos[i],
			VisibilityIndex: scoring.VisibilityIndex(compOcc[i], compPos[i], totalWords),
			ShareOfAnswers:  scoring.ShareOfAnswers(compOcc[i], others),
		})
		if err != nil {
			return nil, fmt.Errorf("upsert competitor metric for %s: %w", item.ID, err)
		}
		report.addPositions(1)
	}

	if err := p.storeCitations(ctx, brand, item, result, report); err != nil {
		return nil, err
	}

	return fact, nil
}

// storeCitations merges cached categories with fresh backend findings,
// writes new categories back to the shared cache, and upserts per-answer
// citation rows.
func (p *pipeline) storeCitations(
	ctx context.Context,
	brand *brands.Brand,
	item *answers.Answer,
	result *analysis.Result,
	report *Report,
) error {
	urls := collectURLs(item)
	if len(urls) == 0 {
		return nil
	}

	hits, _, err := p.rt.Categories.Lookup(ctx, urls)
	if err != nil {
		p.logger.Warn("citation category lookup failed", "answer_id", item.ID, "error", err)
		hits = map[string]citations.Category{}
	}

	fresh := make(map[string]citations.Category)
	for _, finding := range result.Citations {
		domain := citations.NormalizeDomain(finding.URL)
		if domain == "" || finding.Category == "" {
			continue
		}
		if _, ok := hits[domain]; ok {
			continue
		}
		cat := citations.Category{Name: finding.Category, DisplayName: finding.DisplayName}
		fresh[domain] = cat
		hits[domain] = cat
	}

	if len(fresh) > 0 {
		p.rt.Categories.Store(ctx, fresh)
	}

	for _, u := range urls {
		domain := citations.NormalizeDomain(u)
		cat := hits[domain]

		err := p.rt.Metrics.UpsertCitation(ctx, metrics.Citation{
			AnswerID:    item.ID,
			URL:         u,
			Domain:      domain,
			Category:    cat.Name,
			DisplayName: cat.DisplayName,
			Source:      citations.Classify(u, brand.Websites),
		})
		if err != nil {
			return fmt.Errorf("upsert citation for %s: %w", item.ID, err)
		}
		report.addCitations(1)
	}

	return nil
}

// storeSentiment runs phase 3. A result without sentiment is a skipped
// success; a sentiment that cannot be written fails the item.
func (p *pipeline) storeSentiment(
	ctx context.Context,
	brand *brands.Brand,
	fact *metrics.Fact,
	result *analysis.Result,
	report *Report,
) error {
	if result.BrandSentiment == nil && len(result.CompetitorSentiments) == 0 {
		p.logger.Debug("no sentiment in result", "fact_id", fact.ID)
		return nil
	}

	if result.BrandSentiment != nil {
		err := p.rt.Metrics.UpsertSentiment(ctx, metrics.SentimentRecord{
			FactID: fact.ID,
			Entity: brand.Name,
			Score:  result.BrandSentiment.Score,
			Label:  result.BrandSentiment.Label,
		})
		if err != nil {
			return fmt.Errorf("upsert brand sentiment: %w", err)
		}
		report.addSentiments(1)
	}

	for entity, s := range result.CompetitorSentiments {
		err := p.rt.Metrics.UpsertSentiment(ctx, metrics.SentimentRecord{
			FactID: fact.ID,
			Entity: entity,
			Score:  s.Score,
			Label:  s.Label,
		})
		if err != nil {
			return fmt.Errorf("upsert sentiment for %s: %w", entity, err)
		}
		report.addSentiments(1)
	}

	return nil
}

// entityMentions matches every term an entity is known by against the
// tokenized text. Occurrences count each distinct term's matches; positions
// are the union of word indices covered by any match, so "Acme" inside
// "Acme Pro" contributes both words once. Terms that normalize identically
// (configured product vs the same name from the analysis result) count once.
func entityMentions(tokens []string, terms []string) (int, []int) {
	occurrences := 0
	covered := make(map[int]struct{})
	seen := make(map[string]struct{}, len(terms))

	for _, term := range terms {
		termTokens := textmatch.Tokenize(term)
		termLen := len(termTokens)
		if termLen == 0 {
			continue
		}

		key := strings.Join(termTokens, " ")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		starts := textmatch.Positions(tokens, term)
		occurrences += len(starts)

		for _, start := range starts {
			for i := 0; i < termLen; i++ {
				covered[start+i] = struct{}{}
			}
		}
	}

	positions := make([]int, 0, len(covered))
	for pos := range covered {
		positions = append(positions, pos)
	}
	slices.Sort(positions)

	return occurrences, positions
}

// collectURLs merges the answer's captured citation URLs with any found in
// the raw text, deduplicated in first-seen order.
func collectURLs(item *answers.Answer) []string {
	seen := make(map[string]struct{})
	urls := make([]string, 0, len(item.CitationURLs))

	for _, u := range item.CitationURLs {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, u := range citations.ExtractURLs(item.RawText) {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	return urls
}
