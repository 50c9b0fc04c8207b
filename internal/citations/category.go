package citations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prismhq/prism/pkg/repository"
)

// Category describes a cited domain: what kind of source it is and how to
// display it.
type Category struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// CategoryCache caches domain categorizations across brands and customers,
// so a domain classified once is never sent back to a backend.
type CategoryCache interface {
	// Lookup partitions urls into cached hits (keyed by normalized domain)
	// and uncategorized misses (original URLs, deduplicated by domain).
	Lookup(ctx context.Context, urls []string) (map[string]Category, []string, error)

	// Store upserts categories keyed by normalized domain. Failures are
	// logged and swallowed; the cache degrades, the run continues.
	Store(ctx context.Context, categories map[string]Category)
}

type categoryCache struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCategoryCache creates a Postgres-backed citation category cache.
func NewCategoryCache(db *sql.DB, logger *slog.Logger) CategoryCache {
	return &categoryCache{
		db:     db,
		logger: logger.With("system", "citation-categories"),
	}
}

func (c *categoryCache) Lookup(ctx context.Context, urls []string) (map[string]Category, []string, error) {
	hits := make(map[string]Category)
	misses := make([]string, 0)

	domains := make([]string, 0, len(urls))
	domainToURL := make(map[string]string, len(urls))
	for _, u := range urls {
		domain := NormalizeDomain(u)
		if domain == "" {
			continue
		}
		if _, ok := domainToURL[domain]; ok {
			continue
		}
		domains = append(domains, domain)
		domainToURL[domain] = u
	}

	if len(domains) == 0 {
		return hits, misses, nil
	}

	placeholders := make([]string, len(domains))
	args := make([]any, len(domains))
	for i, d := range domains {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = d
	}

	q := fmt.Sprintf(
		"SELECT domain, category, display_name FROM citation_categories WHERE domain IN (%s)",
		strings.Join(placeholders, ", "),
	)

	type row struct {
		domain   string
		category Category
	}

	rows, err := repository.QueryMany(ctx, c.db, q, args, func(s repository.Scanner) (row, error) {
		var r row
		err := s.Scan(&r.domain, &r.category.Name, &r.category.DisplayName)
		return r, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("lookup citation categories: %w", err)
	}

	for _, r := range rows {
		hits[r.domain] = r.category
		delete(domainToURL, r.domain)
	}

	for _, d := range domains {
		if u, ok := domainToURL[d]; ok {
			misses = append(misses, u)
		}
	}

	return hits, misses, nil
}

func (c *categoryCache) Store(ctx context.Context, categories map[string]Category) {
	for domain, cat := range categories {
		if domain == "" || cat.Name == "" {
			continue
		}

		err := repository.ExecExpectOne(ctx, c.db, `
			INSERT INTO citation_categories (domain, category, display_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (domain) DO UPDATE SET
				category = EXCLUDED.category,
				display_name = EXCLUDED.display_name,
				updated_at = NOW()`,
			domain, cat.Name, cat.DisplayName,
		)
		if err != nil {
			c.logger.Warn("citation category store failed", "domain", domain, "error", err)
		}
	}
}
