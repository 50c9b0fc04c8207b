package backends

import (
	"fmt"
	"strings"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/pkg/formatting"
)

const systemPrompt = `You are a brand intelligence analyst. Given an AI assistant's answer
and the brands it may discuss, produce a JSON object with exactly these fields:

{
  "brand_products": ["product names of the tracked brand mentioned in the answer"],
  "competitor_products": {"competitor name": ["their products mentioned"]},
  "brand_sentiment": {"score": 1-100},
  "competitor_sentiments": {"competitor name": {"score": 1-100}},
  "citations": [{"url": "cited url", "category": "source category", "display_name": "source name"}],
  "keywords": ["notable keywords"],
  "quotes": ["verbatim quotes about the tracked brand"],
  "narrative": "one-sentence summary of how the brand is portrayed"
}

Sentiment scores range 1 (hostile) to 100 (glowing); omit sentiment for
entities the answer never evaluates. Categorize only the URLs you are given.
Respond with JSON only.`

func buildUserPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tracked brand: %s\n", req.BrandName)
	if len(req.BrandProducts) > 0 {
		fmt.Fprintf(&b, "Brand products: %s\n", strings.Join(req.BrandProducts, ", "))
	}

	for name, products := range req.Competitors {
		if len(products) > 0 {
			fmt.Fprintf(&b, "Competitor %s (products: %s)\n", name, strings.Join(products, ", "))
		} else {
			fmt.Fprintf(&b, "Competitor %s\n", name)
		}
	}

	if len(req.UncategorizedURLs) > 0 {
		fmt.Fprintf(&b, "URLs to categorize: %s\n", strings.Join(req.UncategorizedURLs, ", "))
	}

	fmt.Fprintf(&b, "\nAnswer text:\n%s\n", req.RawText)
	return b.String()
}

// parseResult parses model output into a normalized analysis result.
// Parse failures surface as ErrUnusableResult.
func parseResult(content string) (*analysis.Result, error) {
	result, err := formatting.Parse[analysis.Result](content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnusableResult, err)
	}

	result.Normalize()
	return &result, nil
}
