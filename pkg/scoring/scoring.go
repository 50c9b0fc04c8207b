// Package scoring computes visibility metrics from mention positions.
//
// The visibility index rewards both early mention (prominence) and
// frequent mention (density), weighted 60/40. Share of answers is the
// percentage of total entity mentions attributable to one entity.
package scoring

import "math"

const (
	prominenceWeight = 0.6
	densityWeight    = 0.4
)

// VisibilityIndex converts raw mention data into a prominence-weighted
// score rounded to 2 decimals. It returns nil when the text has no words
// (nothing to measure) and 0 when the entity never occurs.
func VisibilityIndex(occurrences int, positions []int, totalWords int) *float64 {
	if totalWords <= 0 {
		return nil
	}
	if occurrences == 0 || len(positions) == 0 {
		zero := 0.0
		return &zero
	}

	first := float64(positions[0])
	prominence := 1 / math.Log10(first+9)
	density := float64(occurrences) / float64(totalWords)

	v := Round2(prominenceWeight*prominence + densityWeight*density)
	return &v
}

// ShareOfAnswers returns the percentage of counts attributable to one
// entity against everyone else combined, rounded to 2 decimals. It returns
// nil when there are no counts at all.
func ShareOfAnswers(own, others int) *float64 {
	total := own + others
	if total == 0 {
		return nil
	}

	v := Round2(100 * float64(own) / float64(total))
	return &v
}

// Round2 rounds v to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
