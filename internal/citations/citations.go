// Package citations extracts, normalizes, and categorizes URLs cited in
// answer text.
package citations

import (
	"net/url"
	"strings"

	"mvdan.cc/xurls/v2"
)

// Source classes for a citation relative to the brand being scored.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
)

var relaxed = xurls.Relaxed()

// ExtractURLs returns the URLs found in text, deduplicated in first-seen
// order. Relaxed matching picks up bare domains without a scheme.
func ExtractURLs(text string) []string {
	matches := relaxed.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}

	return urls
}

// NormalizeDomain reduces a raw URL to its bare host: scheme and path
// removed, leading www. stripped, lower-cased. Returns "" for unparseable
// input.
func NormalizeDomain(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Classify labels a cited URL primary when its domain matches or is a
// subdomain of any brand website, secondary otherwise.
func Classify(rawURL string, brandWebsites []string) string {
	domain := NormalizeDomain(rawURL)
	if domain == "" {
		return SourceSecondary
	}

	for _, site := range brandWebsites {
		siteDomain := NormalizeDomain(site)
		if siteDomain == "" {
			continue
		}
		if domain == siteDomain || strings.HasSuffix(domain, "."+siteDomain) {
			return SourcePrimary
		}
	}

	return SourceSecondary
}
