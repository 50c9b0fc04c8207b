// Package backends implements the pluggable analysis clients that turn raw
// answer text into structured analysis results, plus the single-flight
// queue and circuit breaker that guard serialize-only backends.
package backends

import (
	"context"
	"errors"

	"github.com/prismhq/prism/internal/analysis"
)

// Safety declares how a backend tolerates concurrent callers.
type Safety int

const (
	// SafeForBatch backends accept concurrent requests.
	SafeForBatch Safety = iota
	// SerializeOnly backends must receive one request at a time and are
	// wrapped in the single-flight queue.
	SerializeOnly
)

func (s Safety) String() string {
	if s == SerializeOnly {
		return "serialize-only"
	}
	return "safe-for-batch"
}

// ErrUnusableResult indicates the backend answered but its output could not
// be parsed into a result. Semantic, not transient: callers retry a small
// fixed count and then fail the item.
var ErrUnusableResult = errors.New("backend returned unusable result")

// Request carries everything a backend needs to analyze one answer.
type Request struct {
	BrandName         string
	BrandProducts     []string
	BrandWebsites     []string
	Competitors       map[string][]string
	RawText           string
	UncategorizedURLs []string
}

// Backend analyzes answer text into a normalized result.
type Backend interface {
	Name() string
	Safety() Safety
	Analyze(ctx context.Context, req Request) (*analysis.Result, error)
}
