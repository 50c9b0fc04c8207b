// Package textmatch provides deterministic tokenization and exact-token
// term matching over free-form answer text. Positions are 1-indexed word
// positions; matching is case-insensitive and whitespace-insensitive with
// no stemming, fuzzy matching, or overlap suppression.
package textmatch

import (
	"strings"
	"unicode"
)

// Tokenize splits text into normalized word tokens. A token is a run of
// Unicode letters, numbers, and apostrophes; normalization lower-cases,
// strips a trailing possessive 's, and trims surrounding apostrophes.
// Runs that normalize to nothing (a bare apostrophe) are dropped.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if tok := normalize(current.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for _, r := range text {
		if isTokenRune(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// WordCount returns the number of word tokens in text.
func WordCount(text string) int {
	return len(Tokenize(text))
}

// FindPositions returns the sorted, duplicate-free, 1-indexed word
// positions where term occurs in text as a contiguous token sequence.
// Identical input always yields identical output.
func FindPositions(text, term string) []int {
	return Positions(Tokenize(text), term)
}

// Positions matches term against pre-tokenized text. The tokens slice must
// come from Tokenize so both sides share the same normalization.
func Positions(tokens []string, term string) []int {
	termTokens := Tokenize(term)
	if len(termTokens) == 0 || len(termTokens) > len(tokens) {
		return nil
	}

	var positions []int
	for i := 0; i+len(termTokens) <= len(tokens); i++ {
		if matchesAt(tokens, termTokens, i) {
			positions = append(positions, i+1)
		}
	}
	return positions
}

func matchesAt(tokens, term []string, start int) bool {
	for j, t := range term {
		if tokens[start+j] != t {
			return false
		}
	}
	return true
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\''
}

func normalize(tok string) string {
	tok = strings.ToLower(tok)
	tok = strings.TrimSuffix(tok, "'s")
	return strings.Trim(tok, "'")
}
