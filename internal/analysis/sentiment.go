package analysis

// Sentiment labels.
const (
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
	LabelPositive = "POSITIVE"
)

// Sentiment scores an entity's portrayal on a 1-100 scale. Label is always
// derived from Score, never stored independently.
type Sentiment struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// LabelForScore maps a score to its label: below 55 negative, 55 through 65
// neutral, above 65 positive.
func LabelForScore(score int) string {
	switch {
	case score < 55:
		return LabelNegative
	case score <= 65:
		return LabelNeutral
	default:
		return LabelPositive
	}
}

func (s *Sentiment) normalize() {
	if s.Score < 1 {
		s.Score = 1
	}
	if s.Score > 100 {
		s.Score = 100
	}
	s.Label = LabelForScore(s.Score)
}
