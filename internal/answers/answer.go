// Package answers implements the answer backlog domain for Prism.
// It owns every scoring status transition: listing claimable work, the
// compare-and-set claim, completion, failure routing, and reaping of
// abandoned items. No other package writes scoring state.
package answers

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scoring statuses. An answer with no status (NULL in the store) has never
// been picked up; it is claimable alongside pending, error, and timeout.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
	StatusTimeout    = "timeout"
)

// Competitor is a rival brand tracked alongside an answer.
type Competitor struct {
	Name     string   `json:"name"`
	Products []string `json:"products"`
}

// Answer represents a captured AI-assistant answer awaiting scoring.
type Answer struct {
	ID                 uuid.UUID    `json:"id"`
	BrandID            uuid.UUID    `json:"brand_id"`
	CustomerID         uuid.UUID    `json:"customer_id"`
	Prompt             string       `json:"prompt"`
	RawText            string       `json:"raw_text"`
	Competitors        []Competitor `json:"competitors"`
	CitationURLs       []string     `json:"citation_urls"`
	ScoringStatus      string       `json:"scoring_status"`
	ScoringStartedAt   *time.Time   `json:"scoring_started_at"`
	ScoringCompletedAt *time.Time   `json:"scoring_completed_at"`
	ScoringError       *string      `json:"scoring_error"`
	CreatedAt          time.Time    `json:"created_at"`
}

// timeoutVocabulary identifies failure messages that indicate the work was
// cut short rather than genuinely broken. Matching is case-insensitive
// substring.
var timeoutVocabulary = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"canceled",
	"aborted",
}

// FailureStatus routes a failure message to its terminal status: timeout
// when the message matches the timeout vocabulary, error otherwise.
func FailureStatus(msg string) string {
	lowered := strings.ToLower(msg)
	for _, phrase := range timeoutVocabulary {
		if strings.Contains(lowered, phrase) {
			return StatusTimeout
		}
	}
	return StatusError
}

// Claimable reports whether an answer in the given scoring status may be
// claimed. This is the guard the claim CAS enforces: only one of any number
// of concurrent claimers observes a claimable status and flips it to
// processing.
func Claimable(status string) bool {
	switch status {
	case "", StatusPending, StatusError, StatusTimeout:
		return true
	}
	return false
}

// ReapStatus returns the status the reaper moves a processing answer to,
// given when scoring started: error past the dead threshold, timeout past
// the stuck threshold, processing (untouched) otherwise. The dead check
// wins when both thresholds have passed.
func ReapStatus(startedAt, now time.Time, stuckAfter, deadAfter time.Duration) string {
	age := now.Sub(startedAt)
	switch {
	case age >= deadAfter:
		return StatusError
	case age >= stuckAfter:
		return StatusTimeout
	default:
		return StatusProcessing
	}
}
